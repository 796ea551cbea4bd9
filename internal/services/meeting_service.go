package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const meetingRequestTimeout = 10 * time.Second

var remoteLocations = map[string]bool{
	"online":      true,
	"video":       true,
	"zoom":        true,
	"google_meet": true,
	"teams":       true,
}

// IsRemoteLocation reports whether the location implies a video meeting.
func IsRemoteLocation(location string) bool {
	normalized := strings.ToLower(strings.TrimSpace(location))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	return remoteLocations[normalized]
}

type MeetingLinkProvider interface {
	CreateMeeting(ctx context.Context, topic string, start time.Time, durationMinutes int) (string, error)
}

type HTTPMeetingService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPMeetingService(baseURL, apiKey string) *HTTPMeetingService {
	return &HTTPMeetingService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: meetingRequestTimeout},
	}
}

func (s *HTTPMeetingService) CreateMeeting(
	ctx context.Context,
	topic string,
	start time.Time,
	durationMinutes int,
) (string, error) {
	payload := map[string]any{
		"topic":      topic,
		"start_time": start.UTC().Format(time.RFC3339),
		"duration":   durationMinutes,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal meeting payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/meetings", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build meeting request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create meeting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("create meeting: status %d: %s", resp.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var response struct {
		JoinURL string `json:"join_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode meeting response: %w", err)
	}
	if response.JoinURL == "" {
		return "", errors.New("join url missing from response")
	}
	return response.JoinURL, nil
}
