// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package jsonmerge

import (
	"encoding/json"
	"reflect"
	"testing"
)

// decode parses a JSON literal for test input.
func decode(t *testing.T, literal string) any {
	t.Helper()
	var value any
	if err := json.Unmarshal([]byte(literal), &value); err != nil {
		t.Fatalf("bad test literal %q: %v", literal, err)
	}
	return value
}

func TestMerge(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
		want string
	}{
		{
			name: "disjoint keys union",
			old:  `{"title": "a"}`,
			new:  `{"year": 2026}`,
			want: `{"title": "a", "year": 2026}`,
		},
		{
			name: "equal scalars unchanged",
			old:  `{"title": "a"}`,
			new:  `{"title": "a"}`,
			want: `{"title": "a"}`,
		},
		{
			name: "conflicting scalars promote to array",
			old:  `{"title": "a"}`,
			new:  `{"title": "b"}`,
			want: `{"title": ["a", "b"]}`,
		},
		{
			name: "arrays union preserving order",
			old:  `{"tags": ["x", "y"]}`,
			new:  `{"tags": ["y", "z"]}`,
			want: `{"tags": ["x", "y", "z"]}`,
		},
		{
			name: "scalar joins existing array",
			old:  `{"tags": ["x"]}`,
			new:  `{"tags": "y"}`,
			want: `{"tags": ["x", "y"]}`,
		},
		{
			name: "nested objects merge recursively",
			old:  `{"meta": {"title": "a", "tags": ["x"]}}`,
			new:  `{"meta": {"desc": "d", "tags": ["y"]}}`,
			want: `{"meta": {"title": "a", "desc": "d", "tags": ["x", "y"]}}`,
		},
		{
			name: "top level scalars",
			old:  `"a"`,
			new:  `"b"`,
			want: `["a", "b"]`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(decode(t, tc.old), decode(t, tc.new))
			want := decode(t, tc.want)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Merge = %#v, want %#v", got, want)
			}
		})
	}
}

func TestMergeDoesNotAliasInputs(t *testing.T) {
	old := decode(t, `{"tags": ["x"]}`).(map[string]any)
	new := decode(t, `{"tags": ["y"]}`).(map[string]any)

	merged := Merge(old, new).(map[string]any)
	merged["tags"].([]any)[0] = "mutated"

	if old["tags"].([]any)[0] != "x" {
		t.Error("merge aliased the old input")
	}
	if new["tags"].([]any)[0] != "y" {
		t.Error("merge aliased the new input")
	}
}
