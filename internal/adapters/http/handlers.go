package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
	"github.com/samirrijal/tripfootprint/internal/core/usecases"
)

// FootprintInput is the body accepted by the footprint endpoints. Either
// itinerary or tripData must be present.
type FootprintInput struct {
	Itinerary         *domain.Itinerary `json:"itinerary"`
	TripData          *domain.TripData  `json:"tripData"`
	SelectedMode      string            `json:"selectedMode"`
	AccommodationType string            `json:"accommodationType"`
	Source            string            `json:"source"`
}

func (in FootprintInput) request() *domain.FootprintRequest {
	return &domain.FootprintRequest{
		Source:            in.Source,
		Itinerary:         in.Itinerary,
		TripData:          in.TripData,
		SelectedMode:      in.SelectedMode,
		AccommodationType: in.AccommodationType,
	}
}

var errInvalidBody = errors.New("invalid request body")

func parseFootprintInput(c *fiber.Ctx) (*domain.FootprintRequest, error) {
	var in FootprintInput
	if err := c.BodyParser(&in); err != nil {
		return nil, errInvalidBody
	}
	if in.Itinerary == nil && in.TripData == nil {
		return nil, domain.ErrMissingItinerary
	}
	return in.request(), nil
}

// TransportModesHandler lists the emission factors in use.
func TransportModesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Footprints.TransportModes())
	}
}

// EstimateHandler computes a report without storing it.
func EstimateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseFootprintInput(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		report, err := deps.Footprints.EstimateRequest(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(report)
	}
}

// RecordFootprintHandler estimates and stores a footprint.
func RecordFootprintHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseFootprintInput(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		rec, err := deps.Footprints.Record(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/footprints/" + rec.ID)
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// EnqueueFootprintHandler validates a request and queues it for the worker.
func EnqueueFootprintHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseFootprintInput(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		id, err := deps.Footprints.Enqueue(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/footprints/" + id)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"request_id": id,
			"status":     "queued",
		})
	}
}

// ListFootprintsHandler returns stored footprints, newest first.
func ListFootprintsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 0)

		records, total, err := deps.Footprints.List(c.UserContext(), offset, limit)
		if err != nil {
			return errFromDomain(c, err)
		}
		if records == nil {
			records = []domain.FootprintRecord{}
		}

		offset, limit = usecases.ClampPage(offset, limit)
		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: records, Pagination: pg})
	}
}

// GetFootprintHandler returns a single stored footprint.
func GetFootprintHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "footprint id is required")
		}

		rec, err := deps.Footprints.Get(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(rec)
	}
}
