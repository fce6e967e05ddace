package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/enginrect/ovs-bridge-agent/internal/domain"
	"github.com/enginrect/ovs-bridge-agent/internal/ports"
)

// NameCheckFunc adapts a plain function to ports.InterfaceNamePort.
type NameCheckFunc func(ctx context.Context, name string) (bool, error)

func (f NameCheckFunc) IsNameUsed(ctx context.Context, name string) (bool, error) {
	return f(ctx, name)
}

type NameExhaustedError struct {
	Prefix string
	Limit  int
}

func (e *NameExhaustedError) Error() string {
	return fmt.Sprintf("no free name with prefix %q among the first %d candidates", e.Prefix, e.Limit)
}

func (e *NameExhaustedError) Unwrap() error { return domain.ErrNameExhausted }

// NameAllocator picks prefix+N for the smallest free N. It asks the control
// plane afresh for every candidate and reserves nothing, so two allocators
// racing on one prefix can pick the same name; callers that need strict
// uniqueness must serialize allocation themselves.
type NameAllocator struct {
	Names ports.InterfaceNamePort
	Limit int
}

func NewNameAllocator(names ports.InterfaceNamePort, limit int) *NameAllocator {
	if limit <= 0 {
		limit = domain.DefaultNameSearchLimit
	}
	return &NameAllocator{Names: names, Limit: limit}
}

func (a *NameAllocator) Assign(ctx context.Context, prefix string) (string, error) {
	name, _, err := a.firstFree(ctx, prefix, 0)
	return name, err
}

// AssignPair returns two distinct free names, the second searched from just
// past the first.
func (a *NameAllocator) AssignPair(ctx context.Context, prefix string) (string, string, error) {
	first, idx, err := a.firstFree(ctx, prefix, 0)
	if err != nil {
		return "", "", err
	}
	second, _, err := a.firstFree(ctx, prefix, idx+1)
	if err != nil {
		return "", "", err
	}
	return first, second, nil
}

func (a *NameAllocator) firstFree(ctx context.Context, prefix string, start int) (string, int, error) {
	limit := a.Limit
	if limit <= 0 {
		limit = domain.DefaultNameSearchLimit
	}
	for idx := start; idx < limit; idx++ {
		candidate := prefix + strconv.Itoa(idx)
		used, err := a.Names.IsNameUsed(ctx, candidate)
		if err != nil {
			return "", 0, fmt.Errorf("check name %s: %w", candidate, err)
		}
		if !used {
			return candidate, idx, nil
		}
	}
	return "", 0, &NameExhaustedError{Prefix: prefix, Limit: limit}
}
