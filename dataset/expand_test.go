package dataset

import (
	"reflect"
	"testing"
)

func TestExpandNodeKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected []string
		expectErr bool
	}{
		{name: "plain name", key: "region1", expected: []string{"region1"}},
		{name: "union", key: "a,b", expected: []string{"a", "b"}},
		{name: "numeric range", key: "1--3", expected: []string{"1", "2", "3"}},
		{name: "range plus union", key: "1--3,6", expected: []string{"1", "2", "3", "6"}},
		{name: "spaces tolerated", key: "1 -- 2, 5", expected: []string{"1", "2", "5"}},
		{name: "single element range", key: "4--4", expected: []string{"4"}},
		{name: "reversed range", key: "3--1", expectErr: true},
		{name: "non-numeric range", key: "a--c", expectErr: true},
		{name: "empty element", key: "a,,b", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandNodeKey(tt.key)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.key, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ExpandNodeKey(%q) = %v, expected %v", tt.key, got, tt.expected)
			}
		})
	}
}
