package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/samber/lo"

	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

type plantDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListPlants lists all plants without their devices. Devices are fetched
// per plant so a large site inventory does not turn into one huge payload.
func (c *Client) ListPlants(ctx context.Context) ([]types.Plant, error) {
	var err error
	ctx, span := tracer.Start(ctx, "list-plants")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body, err := c.get(ctx, "/api/v1/plants")
	if err != nil {
		return nil, err
	}

	dtos, err := decodeAs[[]plantDTO](body)
	if err != nil {
		return nil, err
	}

	return lo.Map(dtos, func(dto plantDTO, _ int) types.Plant {
		return types.Plant{ID: dto.ID, Name: dto.Name}
	}), nil
}

func (c *Client) CreatePlant(ctx context.Context, plant types.Plant) error {
	var err error
	ctx, span := tracer.Start(ctx, "create-plant")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	_, err = c.do(ctx, http.MethodPost, "/api/v1/plants", plantDTO{ID: plant.ID, Name: plant.Name})
	return err
}

func (c *Client) UpdatePlant(ctx context.Context, plant types.Plant) error {
	var err error
	ctx, span := tracer.Start(ctx, "update-plant")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	_, err = c.do(ctx, http.MethodPut, "/api/v1/plants/"+url.PathEscape(plant.ID), plantDTO{ID: plant.ID, Name: plant.Name})
	return err
}

func (c *Client) DeletePlant(ctx context.Context, plantID string) error {
	var err error
	ctx, span := tracer.Start(ctx, "delete-plant")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	_, err = c.do(ctx, http.MethodDelete, "/api/v1/plants/"+url.PathEscape(plantID), nil)
	return err
}
