package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/viralforge/partner-portal/internal/application"
)

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func parseIntDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func listInputFromQuery(r *http.Request) application.ListInput {
	q := r.URL.Query()
	unread, _ := strconv.ParseBool(q.Get("unread_only"))
	return application.ListInput{
		PartnerID:  strings.TrimSpace(q.Get("partner_id")),
		Status:     strings.TrimSpace(q.Get("status")),
		Query:      strings.TrimSpace(q.Get("q")),
		AssignedTo: strings.TrimSpace(q.Get("assigned_to")),
		From:       strings.TrimSpace(q.Get("from")),
		To:         strings.TrimSpace(q.Get("to")),
		UnreadOnly: unread,
		Limit:      parseIntDefault(q.Get("limit"), 0),
		Offset:     parseIntDefault(q.Get("offset"), 0),
	}
}

func listResponse[T any](items []T, in application.ListInput) map[string]any {
	return map[string]any{
		"items": items,
		"pagination": map[string]any{
			"limit":  in.Limit,
			"offset": in.Offset,
			"count":  len(items),
		},
	}
}
