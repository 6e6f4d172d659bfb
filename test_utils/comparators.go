package test_utils

import (
	"fmt"
	"math"
	"sort"

	"github.com/jamesprial/go-smstats/pkg/types"
)

// CompareStats compares two Stats values, allowing averages to differ by
// at most tolerance.
func CompareStats(expected, actual types.Stats, tolerance float64) error {
	if expected.TotalPosts != actual.TotalPosts {
		return fmt.Errorf("TotalPosts: expected %d, got %d", expected.TotalPosts, actual.TotalPosts)
	}
	if err := compareFloatMaps("AvgPostLengthPerMonth", expected.AvgPostLengthPerMonth, actual.AvgPostLengthPerMonth, tolerance); err != nil {
		return err
	}
	if err := compareFloatMaps("AvgPostsPerUserPerMonth", expected.AvgPostsPerUserPerMonth, actual.AvgPostsPerUserPerMonth, tolerance); err != nil {
		return err
	}
	if err := compareKeys("PostsPerWeek", keys(expected.PostsPerWeek), keys(actual.PostsPerWeek)); err != nil {
		return err
	}
	for week, n := range expected.PostsPerWeek {
		if actual.PostsPerWeek[week] != n {
			return fmt.Errorf("PostsPerWeek[%s]: expected %d, got %d", week, n, actual.PostsPerWeek[week])
		}
	}
	if err := compareKeys("LongestPostPerMonth", keys(expected.LongestPostPerMonth), keys(actual.LongestPostPerMonth)); err != nil {
		return err
	}
	for month, p := range expected.LongestPostPerMonth {
		if actual.LongestPostPerMonth[month] != p {
			return fmt.Errorf("LongestPostPerMonth[%s]: expected %+v, got %+v", month, p, actual.LongestPostPerMonth[month])
		}
	}
	return nil
}

// CompareNumericRanges checks if two numeric values are within tolerance
func CompareNumericRanges(expected, actual, tolerance float64, fieldName string) error {
	if math.Abs(expected-actual) > tolerance {
		return fmt.Errorf("%s: expected %f, got %f (tolerance %f)", fieldName, expected, actual, tolerance)
	}
	return nil
}

func compareFloatMaps(name string, expected, actual map[string]float64, tolerance float64) error {
	if err := compareKeys(name, keys(expected), keys(actual)); err != nil {
		return err
	}
	for k, v := range expected {
		if err := CompareNumericRanges(v, actual[k], tolerance, name+"["+k+"]"); err != nil {
			return err
		}
	}
	return nil
}

func compareKeys(name string, expected, actual []string) error {
	if len(expected) != len(actual) {
		return fmt.Errorf("%s: expected keys %v, got %v", name, expected, actual)
	}
	for i := range expected {
		if expected[i] != actual[i] {
			return fmt.Errorf("%s: expected keys %v, got %v", name, expected, actual)
		}
	}
	return nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
