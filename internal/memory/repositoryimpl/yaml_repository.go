package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/himbot/mission-control/internal/memory"
	"github.com/himbot/mission-control/pkg/cerr"
	"github.com/himbot/mission-control/pkg/storage"
)

const memoriesPrefix = "memories"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", memoriesPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, m *memory.Memory) error {
	exists, err := r.storage.Exists(ctx, path(m.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("memory", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "memory already exists", nil)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal memory: %w", err))
	}
	if err := r.storage.Write(ctx, path(m.ID), data); err != nil {
		return cerr.WrapStorageWriteError("memory", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*memory.Memory, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("memory", err)
	}
	var m memory.Memory
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal memory: %w", err))
	}
	return &m, nil
}

func (r *YAMLRepository) List(ctx context.Context) ([]*memory.Memory, error) {
	paths, err := r.storage.List(ctx, memoriesPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("memories", err)
	}

	sort.Strings(paths)

	var all []*memory.Memory
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var m memory.Memory
		if err := yaml.Unmarshal(data, &m); err != nil {
			continue
		}
		all = append(all, &m)
	}
	return all, nil
}

func (r *YAMLRepository) FindByPath(ctx context.Context, memPath string) (*memory.Memory, error) {
	paths, err := r.storage.List(ctx, memoriesPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("memories", err)
	}

	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var m memory.Memory
		if err := yaml.Unmarshal(data, &m); err != nil {
			continue
		}
		if m.Path == memPath {
			return &m, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "memory not found", nil)
}

func (r *YAMLRepository) Update(ctx context.Context, m *memory.Memory) error {
	exists, err := r.storage.Exists(ctx, path(m.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("memory", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "memory not found", nil)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal memory: %w", err))
	}
	if err := r.storage.Write(ctx, path(m.ID), data); err != nil {
		return cerr.WrapStorageWriteError("memory", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("memory", err)
	}
	return nil
}
