package postgres

import (
	"context"
	"fmt"
	"testing"

	"winsor/internal/storage"
)

func TestFactoryRegistration(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotCfg Config
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{cfg: cfg}, func() {}, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind:    "postgres",
		DSN:     "postgresql://localhost/clean",
		Table:   "public.wages_clean",
		Columns: []string{"wage"},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	if gotCfg.Table != "public.wages_clean" || len(gotCfg.Columns) != 1 {
		t.Fatalf("cfg = %+v", gotCfg)
	}
}

func TestFactoryPropagatesError(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		return nil, nil, fmt.Errorf("connection refused")
	}
	if _, err := storage.New(context.Background(), storage.Config{Kind: "postgres"}); err == nil {
		t.Fatal("expected constructor error")
	}
}

func TestWrappedRepoCloseNilSafe(t *testing.T) {
	w := &wrappedRepo{Repository: &Repository{}}
	w.Close() // must not panic with a nil closeFn
}
