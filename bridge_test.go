package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baton/types"
)

// TestHealthEndpoint tests the basic health check endpoint
func TestHealthEndpoint(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	var response map[string]interface{}
	resp := helper.GetJSON(t, "/health", &response)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "baton", response["service"])
}

// TestAPIStatus tests the Live reachability check and the scanned flag
func TestAPIStatus(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	var response map[string]interface{}
	resp := helper.GetJSON(t, "/api/status", &response)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, response["live"])
	assert.Equal(t, false, response["scanned"])

	helper.ScanAndWait(t)

	helper.GetJSON(t, "/api/status", &response)
	assert.Equal(t, true, response["live"])
	assert.Equal(t, true, response["scanned"])
}

// TestSetSummary tests the session summary before and after a scan
func TestSetSummary(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	var before types.SetSummary
	resp := helper.GetJSON(t, "/api/set", &before)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, before.Connected)
	assert.False(t, before.Scanned)
	assert.Equal(t, 0, before.Tracks)

	helper.ScanAndWait(t)

	var after types.SetSummary
	helper.GetJSON(t, "/api/set", &after)
	assert.True(t, after.Scanned)
	assert.Equal(t, 2, after.Tracks)
	assert.Equal(t, 2, after.Scenes)
	assert.Equal(t, 120.0, after.Tempo)
}

// TestScanWorkflow tests the async scan job lifecycle
func TestScanWorkflow(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	job := helper.ScanAndWait(t)
	assert.Equal(t, types.ScanStatusCompleted, job.Status)
	assert.Equal(t, 4, job.Total) // 2 tracks x 2 scenes
	assert.Equal(t, job.Total, job.Progress)
	assert.Equal(t, 2, job.Tracks)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)

	var list struct {
		Jobs  []types.ScanJob `json:"jobs"`
		Total int             `json:"total"`
	}
	resp := helper.GetJSON(t, "/api/set/scan", &list)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, job.ID, list.Jobs[0].ID)
}

// TestScanJobNotFound tests requesting an unknown scan job
func TestScanJobNotFound(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	resp := helper.MakeRequest(t, "GET", "/api/set/scan/no-such-job", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestTracksEndpoint tests the scanned track listing
func TestTracksEndpoint(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)
	helper.ScanAndWait(t)

	var response struct {
		Tracks []types.TrackInfo `json:"tracks"`
		Total  int               `json:"total"`
	}
	resp := helper.GetJSON(t, "/api/tracks", &response)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, response.Total)

	drums := response.Tracks[0]
	assert.Equal(t, "Drums", drums.Name)
	assert.False(t, drums.Group)
	assert.False(t, drums.Playing)
	require.Len(t, drums.Clips, 2)
	require.NotNil(t, drums.Clips[0])
	assert.Equal(t, "Kick", drums.Clips[0].Name)
	assert.Equal(t, 4.0, drums.Clips[0].Length)
	assert.Equal(t, "stopped", drums.Clips[0].State)
	assert.Nil(t, drums.Clips[1])

	bass := response.Tracks[1]
	assert.Equal(t, "Bass", bass.Name)
	assert.Nil(t, bass.Clips[0])
	require.NotNil(t, bass.Clips[1])
	assert.Equal(t, "Groove", bass.Clips[1].Name)
}

// TestTrackNotFound tests bad track references
func TestTrackNotFound(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)
	helper.ScanAndWait(t)

	resp := helper.MakeRequest(t, "GET", "/api/tracks/9", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = helper.MakeRequest(t, "GET", "/api/tracks/drums", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestNotScannedConflict tests that track endpoints demand a scan first
func TestNotScannedConflict(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	resp := helper.MakeRequest(t, "GET", "/api/tracks/0", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = helper.MakeRequest(t, "POST", "/api/tracks/0/clips/0/play", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// TestClipLifecycle tests firing and stopping a clip through the API
func TestClipLifecycle(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)
	helper.ScanAndWait(t)

	var fired struct {
		Clip types.ClipInfo `json:"clip"`
	}
	resp := helper.PostJSON(t, "/api/tracks/0/clips/0/play", nil, &fired)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "playing", fired.Clip.State)
	assert.Equal(t, "Clip (0,0): Kick [>]", fired.Clip.Display)

	fires := helper.Transport.cmdsTo("/live/clip_slot/fire")
	require.Len(t, fires, 1)
	assert.Equal(t, []interface{}{0, 0}, fires[0])

	var track types.TrackInfo
	helper.GetJSON(t, "/api/tracks/0", &track)
	assert.True(t, track.Playing)

	var stopped struct {
		Clip types.ClipInfo `json:"clip"`
	}
	resp = helper.PostJSON(t, "/api/tracks/0/clips/0/stop", nil, &stopped)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "stopped", stopped.Clip.State)

	stops := helper.Transport.cmdsTo("/live/clip/stop")
	require.Len(t, stops, 1)
	assert.Equal(t, []interface{}{0, 0}, stops[0])
}

// TestClipPlayEmptySlot tests firing a slot that has no clip
func TestClipPlayEmptySlot(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)
	helper.ScanAndWait(t)

	resp := helper.MakeRequest(t, "POST", "/api/tracks/1/clips/0/play", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, helper.Transport.cmdsTo("/live/clip_slot/fire"))
}

// TestClipDetailsEndpoint tests the full clip record query
func TestClipDetailsEndpoint(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)
	helper.ScanAndWait(t)

	var details types.ClipDetailsInfo
	resp := helper.GetJSON(t, "/api/tracks/0/clips/0/details", &details)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Kick", details.Name)
	assert.Equal(t, 4, details.Length)
	assert.Equal(t, 4, details.SignatureNumerator)
	assert.Equal(t, 4, details.SignatureDenominator)
	assert.Equal(t, 0.0, details.StartMarker)
	assert.Equal(t, 4.0, details.EndMarker)
}

// TestClipNotesEndpoints tests listing, adding and removing notes
func TestClipNotesEndpoints(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)
	helper.ScanAndWait(t)

	var list struct {
		Notes []types.NoteInfo `json:"notes"`
		Total int              `json:"total"`
	}
	resp := helper.GetJSON(t, "/api/tracks/0/clips/0/notes", &list)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, 36, list.Notes[0].Pitch)
	assert.Equal(t, 0.25, list.Notes[0].Duration)

	note := types.AddNoteRequest{Pitch: 60, StartTime: 2, Duration: 0.5, Velocity: 100}
	resp = helper.PostJSON(t, "/api/tracks/0/clips/0/notes", note, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	adds := helper.Transport.cmdsTo("/live/clip/add/notes")
	require.Len(t, adds, 1)
	assert.Equal(t, []interface{}{0, 0, 60, 2.0, 0.5, 100, false}, adds[0])

	// Out-of-range pitch is rejected before anything goes on the wire.
	bad := types.AddNoteRequest{Pitch: 200, StartTime: 0, Duration: 0.5, Velocity: 100}
	resp = helper.PostJSON(t, "/api/tracks/0/clips/0/notes", bad, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Len(t, helper.Transport.cmdsTo("/live/clip/add/notes"), 1)

	resp = helper.DeleteJSON(t, "/api/tracks/0/clips/0/notes", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	removes := helper.Transport.cmdsTo("/live/clip/remove/notes")
	require.Len(t, removes, 1)
	assert.Equal(t, []interface{}{0, 0}, removes[0])
}

// TestClipRename tests renaming a clip
func TestClipRename(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)
	helper.ScanAndWait(t)

	resp := helper.PutJSON(t, "/api/tracks/0/clips/0/name", types.RenameRequest{Name: "Banger"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	renames := helper.Transport.cmdsTo("/live/clip/set/name")
	require.Len(t, renames, 1)
	assert.Equal(t, []interface{}{0, 0, "Banger"}, renames[0])

	resp = helper.PutJSON(t, "/api/tracks/0/clips/0/name", types.RenameRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestTempoEndpoints tests reading and writing the song tempo
func TestTempoEndpoints(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	var tempo struct {
		BPM float64 `json:"bpm"`
	}
	resp := helper.GetJSON(t, "/api/set/tempo", &tempo)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 120.0, tempo.BPM)

	resp = helper.PutJSON(t, "/api/set/tempo", types.TempoRequest{BPM: 128}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	sets := helper.Transport.cmdsTo("/live/song/set/tempo")
	require.Len(t, sets, 1)
	assert.Equal(t, []interface{}{128.0}, sets[0])

	resp = helper.PutJSON(t, "/api/set/tempo", types.TempoRequest{BPM: 5}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Len(t, helper.Transport.cmdsTo("/live/song/set/tempo"), 1)
}

// TestSetPlayStop tests song-level transport commands
func TestSetPlayStop(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	resp := helper.PostJSON(t, "/api/set/play", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, helper.Transport.cmdsTo("/live/song/start_playing"), 1)

	resp = helper.PostJSON(t, "/api/set/stop", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, helper.Transport.cmdsTo("/live/song/stop_playing"), 1)
}

// TestTrackStopAndVolume tests per-track commands
func TestTrackStopAndVolume(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)
	helper.ScanAndWait(t)

	resp := helper.PostJSON(t, "/api/tracks/0/stop", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stops := helper.Transport.cmdsTo("/live/track/stop_all_clips")
	require.Len(t, stops, 1)
	assert.Equal(t, []interface{}{0}, stops[0])

	resp = helper.PutJSON(t, "/api/tracks/0/volume", types.VolumeRequest{Volume: 0.5}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	volumes := helper.Transport.cmdsTo("/live/track/set/volume")
	require.Len(t, volumes, 1)
	assert.Equal(t, []interface{}{0, 0.5}, volumes[0])

	resp = helper.PutJSON(t, "/api/tracks/0/volume", types.VolumeRequest{Volume: 1.5}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Len(t, helper.Transport.cmdsTo("/live/track/set/volume"), 1)
}

// TestViewClipEndpoints tests the detail view clip surface
func TestViewClipEndpoints(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	var details types.ClipDetailsInfo
	resp := helper.GetJSON(t, "/api/view/clip", &details)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lead", details.Name)
	assert.Equal(t, 3, details.SignatureNumerator)

	var notes struct {
		Notes []types.NoteInfo `json:"notes"`
		Total int              `json:"total"`
	}
	helper.GetJSON(t, "/api/view/clip/notes", &notes)
	require.Equal(t, 1, notes.Total)
	assert.Equal(t, 72, notes.Notes[0].Pitch)
	assert.True(t, notes.Notes[0].Mute)

	note := types.AddNoteRequest{Pitch: 64, StartTime: 0, Duration: 1, Velocity: 80}
	resp = helper.PostJSON(t, "/api/view/clip/notes", note, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	adds := helper.Transport.cmdsTo("/live/view/detail_clip/add/notes")
	require.Len(t, adds, 1)
	// No routing indices: the detail clip is addressed implicitly.
	assert.Equal(t, []interface{}{64, 0.0, 1.0, 80, false}, adds[0])

	resp = helper.DeleteJSON(t, "/api/view/clip/notes", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, helper.Transport.cmdsTo("/live/view/detail_clip/remove/notes"), 1)
}

// TestSnapshotEndpoints tests the YAML snapshot surface
func TestSnapshotEndpoints(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	resp := helper.MakeRequest(t, "GET", "/api/set/snapshot", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	helper.ScanAndWait(t)

	resp = helper.MakeRequest(t, "GET", "/api/set/snapshot", nil)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "yaml")
	assert.Contains(t, string(body), "Drums")
	assert.Contains(t, string(body), "Groove")

	path := filepath.Join(t.TempDir(), "set.yaml")
	resp = helper.PostJSON(t, "/api/set/snapshot", map[string]string{"path": path}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(saved), "Kick"))
}

// TestGatewayErrors tests that wire failures surface as gateway statuses
func TestGatewayErrors(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)
	helper.ScanAndWait(t)

	// No canned details for the Groove clip, so the query times out.
	resp := helper.MakeRequest(t, "GET", "/api/tracks/1/clips/1/details", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}
