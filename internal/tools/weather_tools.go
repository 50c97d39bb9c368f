package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gatherhq/gather/internal/toolargs"
)

var (
	checkWeatherSpec = toolargs.Spec{
		Tool: "check_weather",
		Fields: []toolargs.Field{
			{Name: "location", Required: true, Format: `city name, optionally "city,CC"`},
		},
	}

	forecastSpec = toolargs.Spec{
		Tool: "get_weather_forecast",
		Fields: []toolargs.Field{
			{Name: "location", Required: true, Format: `city name, optionally "city,CC"`},
			{Name: "days", Default: "5", Numeric: true},
		},
	}
)

func (r *Registry) registerWeatherTools() {
	r.Register(&Tool{
		Name: "check_weather",
		Description: "Get current weather for a location. The location can be a city " +
			"(e.g., 'San Francisco') or city with country code (e.g., 'San Francisco,US').",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "City name, optionally with country code like 'city,CC'",
				},
			},
			"required": []string{"location"},
		},
		Handler: r.handleCheckWeather,
	})

	r.Register(&Tool{
		Name:        "get_weather_forecast",
		Description: "Get a per-day weather forecast (high, low, condition) for up to 5 days.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "City name, optionally with country code like 'city,CC'",
				},
				"days": map[string]any{
					"type":        "string",
					"description": "Number of days, 1-5 (default 5)",
				},
			},
			"required": []string{"location"},
		},
		Handler: r.handleForecast,
	})
}

func (r *Registry) handleCheckWeather(ctx context.Context, args map[string]string) string {
	if r.weather == nil {
		return "Weather is not configured."
	}

	args, errMsg := normalize(checkWeatherSpec, args)
	if errMsg != "" {
		return errMsg
	}

	location := args["location"]
	current, err := r.weather.GetCurrent(ctx, location)
	if err != nil {
		return fmt.Sprintf("Error getting weather: %s", err)
	}

	return fmt.Sprintf("Weather in %s: %s, %.1f°C", location, current.Condition(), current.Main.Temp)
}

func (r *Registry) handleForecast(ctx context.Context, args map[string]string) string {
	if r.weather == nil {
		return "Weather is not configured."
	}

	args, errMsg := normalize(forecastSpec, args)
	if errMsg != "" {
		return errMsg
	}

	location := args["location"]
	days, err := strconv.Atoi(args["days"])
	if err != nil || days <= 0 {
		days = 5
	}

	forecast, err := r.weather.GetForecast(ctx, location, days)
	if err != nil {
		return fmt.Sprintf("Error getting forecast: %s", err)
	}
	if len(forecast) == 0 {
		return fmt.Sprintf("No forecast data available for %s.", location)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Forecast for %s:", location)
	for _, day := range forecast {
		fmt.Fprintf(&b, "\n%s: high %.1f°C, low %.1f°C, %s", day.Date, day.High, day.Low, day.Condition)
	}
	return b.String()
}
