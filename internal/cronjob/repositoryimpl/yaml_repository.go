package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/himbot/mission-control/internal/cronjob"
	"github.com/himbot/mission-control/pkg/cerr"
	"github.com/himbot/mission-control/pkg/storage"
)

const cronJobsPrefix = "cronjobs"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", cronJobsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, j *cronjob.CronJob) error {
	exists, err := r.storage.Exists(ctx, path(j.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("cron job", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "cron job already exists", nil)
	}
	data, err := yaml.Marshal(j)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal cron job: %w", err))
	}
	if err := r.storage.Write(ctx, path(j.ID), data); err != nil {
		return cerr.WrapStorageWriteError("cron job", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*cronjob.CronJob, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("cron job", err)
	}
	var j cronjob.CronJob
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal cron job: %w", err))
	}
	return &j, nil
}

func (r *YAMLRepository) List(ctx context.Context) ([]*cronjob.CronJob, error) {
	paths, err := r.storage.List(ctx, cronJobsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("cron jobs", err)
	}

	sort.Strings(paths)

	var all []*cronjob.CronJob
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var j cronjob.CronJob
		if err := yaml.Unmarshal(data, &j); err != nil {
			continue
		}
		all = append(all, &j)
	}
	return all, nil
}

func (r *YAMLRepository) FindByName(ctx context.Context, name string) (*cronjob.CronJob, error) {
	paths, err := r.storage.List(ctx, cronJobsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("cron jobs", err)
	}

	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var j cronjob.CronJob
		if err := yaml.Unmarshal(data, &j); err != nil {
			continue
		}
		if j.Name == name {
			return &j, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "cron job not found", nil)
}

func (r *YAMLRepository) Update(ctx context.Context, j *cronjob.CronJob) error {
	exists, err := r.storage.Exists(ctx, path(j.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("cron job", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "cron job not found", nil)
	}
	data, err := yaml.Marshal(j)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal cron job: %w", err))
	}
	if err := r.storage.Write(ctx, path(j.ID), data); err != nil {
		return cerr.WrapStorageWriteError("cron job", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("cron job", err)
	}
	return nil
}
