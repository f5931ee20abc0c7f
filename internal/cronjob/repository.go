package cronjob

import "context"

type Repository interface {
	Create(ctx context.Context, j *CronJob) error
	Get(ctx context.Context, id string) (*CronJob, error)
	List(ctx context.Context) ([]*CronJob, error)
	FindByName(ctx context.Context, name string) (*CronJob, error)
	Update(ctx context.Context, j *CronJob) error
	Delete(ctx context.Context, id string) error
}
