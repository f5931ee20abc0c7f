package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/himbot/mission-control/internal/activity"
	"github.com/himbot/mission-control/pkg/cerr"
	"github.com/himbot/mission-control/pkg/storage"
)

const activitiesPrefix = "activities"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", activitiesPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, a *activity.Activity) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal activity: %w", err))
	}
	if err := r.storage.Write(ctx, path(a.ID), data); err != nil {
		return cerr.WrapStorageWriteError("activity", err)
	}
	return nil
}

// List walks entries newest first. ULID file names sort chronologically, so
// reverse lexical order is reverse time order and the scan can stop at the
// limit without reading everything.
func (r *YAMLRepository) List(ctx context.Context, limit int) ([]*activity.Activity, error) {
	paths, err := r.storage.List(ctx, activitiesPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("activities", err)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	var out []*activity.Activity
	for _, p := range paths {
		if limit > 0 && len(out) >= limit {
			break
		}
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var a activity.Activity
		if err := yaml.Unmarshal(data, &a); err != nil {
			continue
		}
		out = append(out, &a)
	}
	return out, nil
}
