package handlers

import (
	"context"

	"github.com/gheggie/silverware-mailchimp/internal/lists"
	"github.com/gheggie/silverware-mailchimp/internal/membership"
)

type MembershipSyncer interface {
	Sync(ctx context.Context, req membership.Request, mode membership.Mode) membership.Result
}

type ListDirectory interface {
	Descriptors(ctx context.Context) ([]lists.Descriptor, error)
	Flush()
}
