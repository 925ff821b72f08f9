package router

import (
	"Orion_Tube/internal/data"
	"Orion_Tube/internal/database"
	"Orion_Tube/internal/handler"
	"Orion_Tube/internal/media"
	"Orion_Tube/internal/model"
	"Orion_Tube/internal/repository"
	"Orion_Tube/internal/service"
	"Orion_Tube/pkg/auth"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var testSecret = []byte("router-secret")

type memoryStore struct {
	uploads int
}

func (s *memoryStore) Upload(ctx context.Context, r io.Reader, size int64, fileName, contentType string) (*media.UploadResult, error) {
	s.uploads++
	io.Copy(io.Discard, r)
	return &media.UploadResult{FileID: "videos/" + fileName, URL: "https://media.test/" + fileName}, nil
}

func (s *memoryStore) UploadImage(ctx context.Context, dataURL, fileName string) (*media.UploadResult, error) {
	return &media.UploadResult{FileID: "thumbnails/" + fileName, URL: "https://media.test/" + fileName}, nil
}

func (s *memoryStore) Delete(ctx context.Context, fileID string) error {
	return nil
}

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	store  *memoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "router_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	videoRepo := repository.NewVideoRepository(db, nil)
	voteRepo := repository.NewVoteRepository(db)
	uow := data.NewUnitOfWork(db, videoRepo, voteRepo)
	store := &memoryStore{}

	engine := SetupRouter(
		handler.NewVideoHandler(service.NewVideoService(videoRepo, voteRepo, uow, store, nil, time.Minute)),
		handler.NewUploadHandler(service.NewUploadService(videoRepo, store, nil)),
		handler.NewVoteHandler(service.NewVoteService(uow, videoRepo)),
		Options{JWTSecret: testSecret, UploadRatePerMinute: 600, UploadRateBurst: 100},
	)
	return &testServer{engine: engine, db: db, store: store}
}

func (s *testServer) user(t *testing.T, name string) (*model.User, string) {
	t.Helper()
	u := &model.User{Username: name, Password: "x"}
	if err := s.db.Create(u).Error; err != nil {
		t.Fatal(err)
	}
	token, err := auth.IssueToken(testSecret, u.ID, u.Username, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return u, token
}

func (s *testServer) video(t *testing.T, owner *model.User) *model.Video {
	t.Helper()
	v := &model.Video{UserID: owner.ID, Title: "clip", FileID: "videos/clip.mp4", VideoURL: "https://media.test/clip.mp4"}
	if err := s.db.Create(v).Error; err != nil {
		t.Fatal(err)
	}
	return v
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body
}

func uploadRequest(t *testing.T, fields map[string]string, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if content != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="video_file"; filename="clip.mp4"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func voteRequest(videoID uint64, vote string) *http.Request {
	form := url.Values{"vote": {vote}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/"+itoa(videoID)+"/vote", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func TestUploadEndpoint(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.user(t, "alice")

	w := srv.do(uploadRequest(t, map[string]string{"title": "Hello", "description": "d"}, "video/mp4", []byte("data")), token)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["success"] != true || body["video_id"] == nil || body["message"] != "Video uploaded successfully" {
		t.Errorf("body = %v", body)
	}
}

func TestUploadEndpointValidation(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.user(t, "alice")

	w := srv.do(uploadRequest(t, map[string]string{"title": ""}, "image/jpeg", []byte("jpg")), token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	want := "title: This field is required.; video_file: This video type not allowed"
	if body["success"] != false || body["errors"] != want {
		t.Errorf("body = %v", body)
	}
	if srv.store.uploads != 0 {
		t.Errorf("uploads = %d, want 0", srv.store.uploads)
	}

	w = srv.do(uploadRequest(t, map[string]string{"title": "no file"}, "", nil), token)
	if body := decode(t, w); w.Code != http.StatusBadRequest || body["errors"] != "video_file: This field is required." {
		t.Errorf("missing file: %d %v", w.Code, body)
	}
}

func TestUploadEndpointRequiresAuth(t *testing.T) {
	srv := newTestServer(t)
	w := srv.do(uploadRequest(t, map[string]string{"title": "x"}, "video/mp4", []byte("d")), "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestVoteEndpoint(t *testing.T) {
	srv := newTestServer(t)
	owner, _ := srv.user(t, "owner")
	_, token := srv.user(t, "voter")
	video := srv.video(t, owner)

	steps := []struct {
		vote     string
		likes    float64
		dislikes float64
		userVote interface{}
	}{
		{"like", 1, 0, "like"},
		{"dislike", 0, 1, "dislike"},
		{"dislike", 0, 0, nil},
	}
	for _, step := range steps {
		w := srv.do(voteRequest(video.ID, step.vote), token)
		if w.Code != http.StatusOK {
			t.Fatalf("vote %s: status %d body %s", step.vote, w.Code, w.Body.String())
		}
		body := decode(t, w)
		if body["likes"] != step.likes || body["dislikes"] != step.dislikes || body["user_vote"] != step.userVote {
			t.Errorf("vote %s: body = %v", step.vote, body)
		}
	}
}

func TestVoteEndpointErrors(t *testing.T) {
	srv := newTestServer(t)
	owner, token := srv.user(t, "owner")
	video := srv.video(t, owner)

	tests := []struct {
		name    string
		req     *http.Request
		token   string
		status  int
		message string
	}{
		{"invalid vote", voteRequest(video.ID, "love"), token, http.StatusBadRequest, "Invalid vote"},
		{"invalid vote on missing video", voteRequest(9999, "meh"), token, http.StatusBadRequest, "Invalid vote"},
		{"missing video", voteRequest(9999, "like"), token, http.StatusNotFound, "video not found"},
		{"anonymous", voteRequest(video.ID, "like"), "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(tt.req, tt.token)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.message != "" {
				if body := decode(t, w); body["error"] != tt.message || body["success"] != false {
					t.Errorf("body = %v", body)
				}
			}
		})
	}
}

func TestVideoDetailEndpoint(t *testing.T) {
	srv := newTestServer(t)
	owner, _ := srv.user(t, "owner")
	_, token := srv.user(t, "voter")
	video := srv.video(t, owner)

	srv.do(voteRequest(video.ID, "like"), token)

	path := "/api/v1/videos/" + itoa(video.ID)
	anon := decode(t, srv.do(httptest.NewRequest(http.MethodGet, path, nil), ""))["data"].(map[string]interface{})
	if anon["views"] != float64(1) || anon["user_vote"] != nil || anon["likes"] != float64(1) {
		t.Errorf("anonymous detail = %v", anon)
	}

	authed := decode(t, srv.do(httptest.NewRequest(http.MethodGet, path, nil), token))["data"].(map[string]interface{})
	if authed["views"] != float64(2) || authed["user_vote"] != "like" {
		t.Errorf("authenticated detail = %v", authed)
	}

	w := srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/videos/424242", nil), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing video status = %d, want 404", w.Code)
	}
}

func TestFeedAndChannelEndpoints(t *testing.T) {
	srv := newTestServer(t)
	alice, _ := srv.user(t, "alice")
	srv.video(t, alice)
	srv.video(t, alice)

	feed := decode(t, srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil), ""))
	if items := feed["data"].([]interface{}); len(items) != 2 {
		t.Errorf("feed items = %d, want 2", len(items))
	}

	channel := decode(t, srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/channels/alice", nil), ""))
	if channel["channel_name"] != "alice" || len(channel["data"].([]interface{})) != 2 {
		t.Errorf("channel = %v", channel)
	}

	empty := decode(t, srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/channels/nobody", nil), ""))
	if items, ok := empty["data"].([]interface{}); !ok || len(items) != 0 {
		t.Errorf("unknown channel data = %v, want []", empty["data"])
	}
}

func TestDeleteEndpoint(t *testing.T) {
	srv := newTestServer(t)
	owner, ownerToken := srv.user(t, "owner")
	_, otherToken := srv.user(t, "other")
	video := srv.video(t, owner)
	path := "/api/v1/videos/" + itoa(video.ID) + "/delete"

	foreign := srv.do(httptest.NewRequest(http.MethodPost, path, nil), otherToken)
	missing := srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/videos/777/delete", nil), otherToken)
	if foreign.Code != http.StatusNotFound || foreign.Body.String() != missing.Body.String() {
		t.Errorf("foreign %d %s vs missing %d %s", foreign.Code, foreign.Body.String(), missing.Code, missing.Body.String())
	}

	w := srv.do(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+itoa(video.ID), nil), ownerToken)
	if body := decode(t, w); w.Code != http.StatusOK || body["success"] != true {
		t.Errorf("owner delete: %d %v", w.Code, body)
	}

	again := srv.do(httptest.NewRequest(http.MethodPost, path, nil), ownerToken)
	if again.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", again.Code)
	}
}

func TestPingAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	if w := srv.do(httptest.NewRequest(http.MethodGet, "/ping", nil), ""); w.Code != http.StatusOK {
		t.Errorf("ping status = %d", w.Code)
	}
	w := srv.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Errorf("metrics status = %d", w.Code)
	}
}
