package httpapi

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	companion "github.com/i474232898/weather-companion/internal/app"
	"github.com/i474232898/weather-companion/internal/geocode"
	"github.com/i474232898/weather-companion/internal/settings"
	"github.com/i474232898/weather-companion/internal/store"
	"github.com/i474232898/weather-companion/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, a *companion.App) {
	v1 := app.Group("/api/v1")

	v1.Get("/locations/search", func(c *fiber.Ctx) error {
		var q searchQuery
		q.Query = c.Query("q")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
		}

		locs, err := a.Search(c.UserContext(), q.Query)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"results": locationViews(locs, requestLanguage(c, a))})
	})

	v1.Get("/locations/reverse", func(c *fiber.Ctx) error {
		q, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		loc, err := a.Reverse(c.UserContext(), q.Lat, q.Lon)
		if err != nil {
			return err
		}
		return c.JSON(newLocationView(loc, requestLanguage(c, a)))
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		q, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		data, err := a.WeatherAt(c.UserContext(), q.Lat, q.Lon, c.QueryBool("refresh"))
		if err != nil {
			return err
		}
		return c.JSON(data)
	})

	v1.Get("/weather/current-location", func(c *fiber.Ctx) error {
		q, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		data, err := a.CurrentLocationWeather(c.UserContext(), q.Lat, q.Lon)
		if err != nil {
			return err
		}
		return c.JSON(data)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshots, err := a.CurrentHistory(req.Location.Lat, req.Location.Lon, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return err
		}

		return c.JSON(fiber.Map{
			"latitude":  req.Location.Lat,
			"longitude": req.Location.Lon,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	v1.Get("/favorites", func(c *fiber.Ctx) error {
		favs, err := a.ListFavorites(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"favorites": locationViews(favs, requestLanguage(c, a))})
	})

	v1.Post("/favorites", func(c *fiber.Ctx) error {
		var loc weather.LocationData
		if err := c.BodyParser(&loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid location body")
		}
		saved, err := a.AddFavorite(c.UserContext(), loc)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(newLocationView(saved, requestLanguage(c, a)))
	})

	v1.Post("/favorites/refresh", func(c *fiber.Ctx) error {
		if err := a.RefreshFavorites(c.UserContext()); err != nil {
			slog.Warn("refreshing favorites failed", "err", err)
			return fiber.NewError(fiber.StatusBadGateway, "some favorites could not be refreshed")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Delete("/favorites/:id", func(c *fiber.Ctx) error {
		if err := a.RemoveFavorite(c.UserContext(), c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Put("/favorites/:id/position", func(c *fiber.Ctx) error {
		var body positionBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid position body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "position must be a non-negative integer")
		}
		if err := a.MoveFavorite(c.UserContext(), c.Params("id"), *body.Position); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/favorites/:id/weather", func(c *fiber.Ctx) error {
		data, err := a.FavoriteWeather(c.UserContext(), c.Params("id"), c.QueryBool("refresh"))
		if err != nil {
			return err
		}
		return c.JSON(data)
	})

	v1.Get("/settings", func(c *fiber.Ctx) error {
		return c.JSON(a.CurrentSettings())
	})

	v1.Put("/settings", func(c *fiber.Ctx) error {
		state, err := a.UpdateSettings(func(s *settings.State) error {
			if err := c.BodyParser(s); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid settings body")
			}
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(state)
	})

	v1.Get("/presets", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"presets": a.Presets()})
	})
}

// ErrorHandler renders errors as JSON with a status matching the failure.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "status", code, "err", err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func statusFor(err error) int {
	var (
		fe *fiber.Error
		ge *geocode.GeocodingError
	)
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, geocode.ErrLocationPermissionDenied):
		return fiber.StatusForbidden
	case errors.Is(err, geocode.ErrInvalidAddress), errors.Is(err, settings.ErrInvalid):
		return fiber.StatusBadRequest
	case errors.Is(err, geocode.ErrNoResults), errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.As(err, &ge), errors.Is(err, companion.ErrForecastUnavailable):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// requestLanguage picks the display language from Accept-Language, falling
// back to the saved setting.
func requestLanguage(c *fiber.Ctx, a *companion.App) string {
	return settings.MatchAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage), a.CurrentSettings().Language)
}

type locationView struct {
	weather.LocationData
	DisplayName string `json:"displayName"`
}

func newLocationView(loc weather.LocationData, lang string) locationView {
	return locationView{LocationData: loc, DisplayName: loc.DisplayName(lang)}
}

func locationViews(locs []weather.LocationData, lang string) []locationView {
	out := make([]locationView, 0, len(locs))
	for _, l := range locs {
		out = append(out, newLocationView(l, lang))
	}
	return out
}

type searchQuery struct {
	Query string `validate:"required"`
}

type positionBody struct {
	Position *int `json:"position" validate:"required,min=0"`
}

// coordinatesQuery holds query parameters for identifying a location.
type coordinatesQuery struct {
	Lat float64 `validate:"latitude"`
	Lon float64 `validate:"longitude"`
}

func parseCoordinates(c *fiber.Ctx) (coordinatesQuery, error) {
	var q coordinatesQuery

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return q, errors.New("lat and lon query parameters are required")
	}

	var err error
	if q.Lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return q, errors.New("lat must be a number")
	}
	if q.Lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return q, errors.New("lon must be a number")
	}

	if err := validate.Struct(q); err != nil {
		return q, errors.New("lat and lon must be valid coordinates")
	}
	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location coordinatesQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseCoordinates(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
