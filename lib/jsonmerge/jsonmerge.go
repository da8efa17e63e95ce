// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

// Package jsonmerge combines two JSON documents written by
// independent devices into one that loses neither side's data. It is
// the merge policy used by the properties store when concurrent
// writers race on the same resource: array fields are unioned, and a
// scalar field written differently on two devices is promoted to an
// array holding both values.
package jsonmerge

import (
	"reflect"
)

// Merge combines old and new JSON values (as decoded by
// encoding/json: map[string]any, []any, string, float64, bool, nil).
// The result contains every key from either side. For keys present in
// both:
//
//   - two objects merge recursively;
//   - two arrays union, keeping old's order then new's unseen items;
//   - an array and a scalar union as if the scalar were a one-element
//     array;
//   - two unequal scalars promote to a two-element array [old, new];
//   - equal values stay as they are.
//
// Neither input is mutated.
func Merge(old, new any) any {
	oldObject, oldIsObject := old.(map[string]any)
	newObject, newIsObject := new.(map[string]any)
	if oldIsObject && newIsObject {
		return mergeObjects(oldObject, newObject)
	}

	if reflect.DeepEqual(old, new) {
		return cloneValue(old)
	}

	return unionValues(old, new)
}

func mergeObjects(old, new map[string]any) map[string]any {
	merged := make(map[string]any, len(old)+len(new))
	for key, value := range old {
		merged[key] = cloneValue(value)
	}
	for key, newValue := range new {
		oldValue, present := merged[key]
		if !present {
			merged[key] = cloneValue(newValue)
			continue
		}
		merged[key] = Merge(oldValue, newValue)
	}
	return merged
}

// unionValues flattens both sides into one array with no duplicate
// elements, treating a non-array side as a single element.
func unionValues(old, new any) []any {
	var union []any
	appendUnique := func(value any) {
		for _, existing := range union {
			if reflect.DeepEqual(existing, value) {
				return
			}
		}
		union = append(union, cloneValue(value))
	}

	for _, side := range []any{old, new} {
		if array, ok := side.([]any); ok {
			for _, element := range array {
				appendUnique(element)
			}
		} else {
			appendUnique(side)
		}
	}
	return union
}

// cloneValue deep-copies decoded JSON so merged documents never alias
// their inputs.
func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for key, element := range typed {
			clone[key] = cloneValue(element)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, element := range typed {
			clone[i] = cloneValue(element)
		}
		return clone
	default:
		return typed
	}
}
