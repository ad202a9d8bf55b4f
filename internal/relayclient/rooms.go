package relayclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/BioHazard786/screenrelay/internal/signaling"
)

// FetchRooms reads the relay's /api/rooms listing in msgpack form.
func FetchRooms(ctx context.Context, httpClient *http.Client, baseURL string) (*signaling.RoomList, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/rooms", nil)
	if err != nil {
		return nil, NewError("build rooms request", err)
	}
	req.Header.Set("Accept", signaling.MsgpackContentType)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, NewError("fetch rooms", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, NewError("fetch rooms", fmt.Errorf("rooms API is disabled on this relay"))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewError("fetch rooms", fmt.Errorf("unexpected status %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, NewError("read rooms", err)
	}

	var list signaling.RoomList
	if err := msgpack.Unmarshal(data, &list); err != nil {
		return nil, NewError("decode rooms", err)
	}
	return &list, nil
}
