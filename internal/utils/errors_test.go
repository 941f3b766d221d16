package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestFetchErrorMatching(t *testing.T) {
	err := fmt.Errorf("job failed: %w", &FetchError{Worker: 2, Range: Range{Index: 2, Start: 10, End: 19}, Err: context.Canceled})
	if !errors.Is(err, ErrFetch) {
		t.Error("FetchError does not match ErrFetch")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("FetchError does not expose its cause")
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Worker != 2 {
		t.Errorf("errors.As failed: %v", fe)
	}
	if errors.Is(err, ErrMerge) {
		t.Error("FetchError matches ErrMerge")
	}
}

func TestMergeErrorMatching(t *testing.T) {
	err := &MergeError{Index: 1, Path: "x.part1", Err: errors.New("segment missing")}
	if !errors.Is(err, ErrMerge) || errors.Is(err, ErrFetch) {
		t.Errorf("unexpected matching for %v", err)
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: bad", ErrInvalidInput), "InvalidInput"},
		{fmt.Errorf("%w: exit 1", ErrResolutionFailed), "ResolutionFailed"},
		{fmt.Errorf("%w: no length", ErrSizeUnknown), "SizeUnknown"},
		{&FetchError{Err: ErrRangeNotHonored}, "FetchError"},
		{&MergeError{Err: errors.New("short")}, "MergeError"},
		{fmt.Errorf("%w: 1 KiB free", ErrInsufficientSpace), "InsufficientSpace"},
		{fmt.Errorf("%w: denied", ErrPublish), "PublishError"},
		{errors.New("other"), "Error"},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
