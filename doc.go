// Package smstats fetches social-media posts from the Supermetrics assignment
// API and reduces them to summary statistics.
//
// # Overview
//
// A PostManager registers a session token on creation, pages through the
// posts endpoint and aggregates every post it receives:
//
//	manager, err := smstats.New(ctx, &smstats.Config{
//		ClientID: "your-client-id",
//		Email:    "you@example.com",
//		Name:     "Your Name",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	stats, err := manager.GetPostsStats(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("%d posts\n", stats.TotalPosts)
//	for month, avg := range stats.AvgPostLengthPerMonth {
//		fmt.Printf("%s: %.1f characters\n", month, avg)
//	}
//
// # Token Lifecycle
//
// The token has no local expiry. It is only known to be invalid when the posts
// endpoint refuses it. When that happens the manager registers a new token
// once and retries the same page. If the new token is refused as well the
// call fails with the status of the refused request. A failed registration
// is never retried.
//
// # Pagination
//
// Pages are requested in order starting at 1. Fetching stops at the first
// page with no posts or after Config.MaxPage pages, whichever comes first.
// PostIterator exposes the same loop one page at a time:
//
//	it := manager.NewPostIterator()
//	for it.HasNext() {
//		page, err := it.Next(ctx)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("page %d: %d posts\n", page.Number, len(page.Posts))
//	}
//
// # Error Handling
//
// Every failure talking to the API is a *errors.DataGetError tagged with the
// stage it happened in:
//
//	var dataErr *pkgerrs.DataGetError
//	if errors.As(err, &dataErr) {
//		switch dataErr.Stage {
//		case pkgerrs.StageGetToken:
//			// registration failed
//		case pkgerrs.StageGetPosts:
//			// fetching a page failed
//		}
//	}
//
// Invalid configuration is reported as a *errors.ConfigError before any
// request is made. No statistics are returned unless every page was fetched.
//
// # Configuration
//
// Config can be built in code, read from YAML with LoadConfig and overridden
// from SMSTATS_* environment variables with ApplyEnv. Unset fields fall back
// to the Default* constants.
//
// # Logging and Metrics
//
// Provide a *slog.Logger in Config.Logger for debug output of every request.
// Provide NewMetrics(registry) in Config.Metrics to count requests, token
// refreshes and fetched posts with Prometheus.
package smstats
