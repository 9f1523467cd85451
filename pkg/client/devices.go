package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/samber/lo"

	"github.com/awcwater/field-asset-mgmt/pkg/types"
)

// deviceDTO is the flat wire shape the backend speaks for devices. Nested
// area, location and scan details travel as top-level fields, and empty
// strings are sent as null rather than "".
type deviceDTO struct {
	ID      string  `json:"id"`
	PlantID string  `json:"plantId"`
	Type    *string `json:"type"`
	Name    *string `json:"name"`
	System  *string `json:"system"`

	Panel   *string `json:"panel"`
	Bucket  *string `json:"bucket"`
	Aisle   *string `json:"aisle"`
	NavText *string `json:"navText"`

	QR *string `json:"qr"`

	AreaID    *string `json:"areaId"`
	AreaName  *string `json:"areaName"`
	AreaLevel *string `json:"areaLevel"`

	Tags []string    `json:"tags"`
	Docs []types.Doc `json:"docs,omitempty"`
}

func toDeviceDTO(plantID string, d types.Device) deviceDTO {
	dto := deviceDTO{
		ID:      d.ID,
		PlantID: plantID,
		Type:    nullable(d.Type),
		Name:    nullable(d.Name),
		System:  nullable(d.System),

		Panel:   nullable(d.Loc.Panel),
		Bucket:  nullable(d.Loc.Bucket),
		Aisle:   nullable(d.Loc.Aisle),
		NavText: nullable(d.Loc.NavText),

		AreaID:    nullable(d.Area.ID),
		AreaName:  nullable(d.Area.Name),
		AreaLevel: nullable(d.Area.Level),

		Tags: d.Tags,
		Docs: d.Docs,
	}

	if d.Scan != nil {
		dto.QR = nullable(d.Scan.QR)
	}

	return dto
}

func (dto deviceDTO) toDevice() types.Device {
	d := types.Device{
		ID:     dto.ID,
		Name:   orEmpty(dto.Name),
		Type:   orEmpty(dto.Type),
		System: orEmpty(dto.System),

		Area: types.Area{
			ID:    orEmpty(dto.AreaID),
			Name:  orEmpty(dto.AreaName),
			Level: orEmpty(dto.AreaLevel),
		},
		Loc: types.Location{
			Panel:   orEmpty(dto.Panel),
			Bucket:  orEmpty(dto.Bucket),
			Aisle:   orEmpty(dto.Aisle),
			NavText: orEmpty(dto.NavText),
		},

		Tags: dto.Tags,
		Docs: dto.Docs,
	}

	if dto.QR != nil && *dto.QR != "" {
		d.Scan = &types.ScanInfo{QR: *dto.QR}
	}

	return d
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (c *Client) ListDevices(ctx context.Context, plantID string) ([]types.Device, error) {
	var err error
	ctx, span := tracer.Start(ctx, "list-devices")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	body, err := c.get(ctx, "/api/v1/plants/"+url.PathEscape(plantID)+"/devices")
	if err != nil {
		return nil, err
	}

	dtos, err := decodeAs[[]deviceDTO](body)
	if err != nil {
		return nil, err
	}

	return lo.Map(dtos, func(dto deviceDTO, _ int) types.Device {
		return dto.toDevice()
	}), nil
}

func (c *Client) CreateDevice(ctx context.Context, plantID string, device types.Device) error {
	var err error
	ctx, span := tracer.Start(ctx, "create-device")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	_, err = c.do(ctx, http.MethodPost, "/api/v1/plants/"+url.PathEscape(plantID)+"/devices", toDeviceDTO(plantID, device))
	return err
}

func (c *Client) UpdateDevice(ctx context.Context, plantID string, device types.Device) error {
	var err error
	ctx, span := tracer.Start(ctx, "update-device")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	path := "/api/v1/plants/" + url.PathEscape(plantID) + "/devices/" + url.PathEscape(device.ID)
	_, err = c.do(ctx, http.MethodPut, path, toDeviceDTO(plantID, device))
	return err
}

func (c *Client) DeleteDevice(ctx context.Context, plantID, deviceID string) error {
	var err error
	ctx, span := tracer.Start(ctx, "delete-device")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	path := "/api/v1/plants/" + url.PathEscape(plantID) + "/devices/" + url.PathEscape(deviceID)
	_, err = c.do(ctx, http.MethodDelete, path, nil)
	return err
}

type tagsBody struct {
	Tags []string `json:"tags"`
}

// ReplaceTags overwrites the device's tag set.
func (c *Client) ReplaceTags(ctx context.Context, plantID, deviceID string, tags []string) error {
	var err error
	ctx, span := tracer.Start(ctx, "replace-device-tags")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	_, err = c.do(ctx, http.MethodPut, "/api/v1/devices/"+url.PathEscape(deviceID)+"/tags", tagsBody{Tags: tags})
	return err
}

// AddTags appends tags to the device's tag set.
func (c *Client) AddTags(ctx context.Context, plantID, deviceID string, tags []string) error {
	var err error
	ctx, span := tracer.Start(ctx, "add-device-tags")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	_, err = c.do(ctx, http.MethodPost, "/api/v1/devices/"+url.PathEscape(deviceID)+"/tags", tagsBody{Tags: tags})
	return err
}

func (c *Client) RemoveTag(ctx context.Context, plantID, deviceID, tag string) error {
	var err error
	ctx, span := tracer.Start(ctx, "remove-device-tag")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	path := "/api/v1/devices/" + url.PathEscape(deviceID) + "/tags/" + url.PathEscape(tag)
	_, err = c.do(ctx, http.MethodDelete, path, nil)
	return err
}
