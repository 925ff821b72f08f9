package service

import (
	"Orion_Tube/internal/apperr"
	"Orion_Tube/internal/model"
	"context"
	"strings"
	"testing"
)

func uploadInput(userID uint64) UploadInput {
	return UploadInput{
		UserID:      userID,
		Title:       "My first video",
		Description: "  hello  ",
		File:        strings.NewReader("fake video"),
		FileName:    "clip.mp4",
		FileSize:    10,
		ContentType: "video/mp4",
	}
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(in *UploadInput)
		wantFields []string
	}{
		{
			name:       "missing title",
			mutate:     func(in *UploadInput) { in.Title = "   " },
			wantFields: []string{"title: This field is required."},
		},
		{
			name:       "title too long",
			mutate:     func(in *UploadInput) { in.Title = strings.Repeat("字", 201) },
			wantFields: []string{"title: Ensure this value has at most 200 characters (it has 201)."},
		},
		{
			name:       "missing file",
			mutate:     func(in *UploadInput) { in.File = nil },
			wantFields: []string{"video_file: This field is required."},
		},
		{
			name: "empty file",
			mutate: func(in *UploadInput) {
				in.File = strings.NewReader("")
				in.FileSize = 0
			},
			wantFields: []string{"video_file: The submitted file is empty."},
		},
		{
			name:       "one byte over the limit",
			mutate:     func(in *UploadInput) { in.FileSize = MaxVideoSize + 1 },
			wantFields: []string{"video_file: Video must be under 100mb"},
		},
		{
			name:       "image content type",
			mutate:     func(in *UploadInput) { in.ContentType = "image/jpeg" },
			wantFields: []string{"video_file: This video type not allowed"},
		},
		{
			name: "every violation is reported",
			mutate: func(in *UploadInput) {
				in.Title = ""
				in.FileSize = MaxVideoSize + 1
				in.ContentType = "image/jpeg"
			},
			wantFields: []string{
				"title: This field is required.",
				"video_file: Video must be under 100mb",
				"video_file: This video type not allowed",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			owner := env.createUser(t, "alice")
			in := uploadInput(owner.ID)
			tt.mutate(&in)

			video, err := env.uploads.Upload(context.Background(), in)
			if video != nil {
				t.Fatalf("Upload() returned video %d, want nil", video.ID)
			}
			var appErr *apperr.Error
			if !asAppErr(err, &appErr) || appErr.Kind != apperr.KindValidation {
				t.Fatalf("Upload() error = %v, want validation error", err)
			}
			if got, want := appErr.FieldSummary(), strings.Join(tt.wantFields, "; "); got != want {
				t.Errorf("FieldSummary() = %q, want %q", got, want)
			}
			if n := env.store.remoteCalls(); n != 0 {
				t.Errorf("media store called %d times, want 0", n)
			}
		})
	}
}

func TestUploadAcceptsBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		size        int64
		contentType string
		title       string
	}{
		{"exactly 100 MiB", MaxVideoSize, "video/mp4", "t"},
		{"webm", 1, "video/webm", "t"},
		{"quicktime", 1, "video/quicktime", "t"},
		{"avi", 1, "video/x-msvideo", "t"},
		{"content type params", 1, "video/mp4; codecs=avc1", "t"},
		{"upper case content type", 1, "VIDEO/MP4", "t"},
		{"title at the limit", 1, "video/mp4", strings.Repeat("a", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			owner := env.createUser(t, "alice")
			in := uploadInput(owner.ID)
			in.FileSize = tt.size
			in.ContentType = tt.contentType
			in.Title = tt.title

			video, err := env.uploads.Upload(context.Background(), in)
			if err != nil {
				t.Fatalf("Upload() error = %v", err)
			}
			if video.ID == 0 {
				t.Error("video ID not assigned")
			}
		})
	}
}

func TestUploadCreatesVideo(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	in := uploadInput(owner.ID)
	in.FileName = "clip.final.mp4"
	in.ThumbnailData = "data:image/jpeg;base64,aGVsbG8="

	video, err := env.uploads.Upload(context.Background(), in)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	saved := env.reloadVideo(t, video.ID)
	if saved.UserID != owner.ID || saved.Title != "My first video" || saved.Description != "hello" {
		t.Errorf("saved video = %+v", saved)
	}
	if saved.FileID != "videos/clip.final.mp4" || saved.VideoURL == "" {
		t.Errorf("media fields = %q %q", saved.FileID, saved.VideoURL)
	}
	if saved.ThumbnailURL != "https://media.test/thumbnails/clip.final_thumb.jpg" {
		t.Errorf("ThumbnailURL = %q", saved.ThumbnailURL)
	}
	if saved.Views != 0 || saved.Likes != 0 || saved.Dislikes != 0 {
		t.Errorf("counters = %d/%d/%d, want zero", saved.Views, saved.Likes, saved.Dislikes)
	}
}

func TestUploadThumbnailFailureStillSucceeds(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	env.store.imageErr = errRemote

	in := uploadInput(owner.ID)
	in.ThumbnailData = "data:image/png;base64,aGVsbG8="

	video, err := env.uploads.Upload(context.Background(), in)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if saved := env.reloadVideo(t, video.ID); saved.ThumbnailURL != "" {
		t.Errorf("ThumbnailURL = %q, want empty", saved.ThumbnailURL)
	}
	if ops := env.publisher.ops(); len(ops) != 1 || ops[0] != MediaOpUploadThumbnail {
		t.Errorf("published ops = %v", ops)
	}
}

func TestUploadIgnoresNonImageThumbnail(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	in := uploadInput(owner.ID)
	in.ThumbnailData = "data:text/plain;base64,aGVsbG8="

	if _, err := env.uploads.Upload(context.Background(), in); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(env.store.images) != 0 {
		t.Errorf("thumbnail uploads = %v, want none", env.store.images)
	}
}

func TestUploadMediaFailureAborts(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	env.store.uploadErr = errRemote

	_, err := env.uploads.Upload(context.Background(), uploadInput(owner.ID))
	if apperr.KindOf(err) != apperr.KindRemote {
		t.Fatalf("Upload() error = %v, want remote error", err)
	}
	if !strings.Contains(err.Error(), errRemote.Error()) {
		t.Errorf("error %q does not surface the remote message", err)
	}

	var count int64
	env.db.Model(&model.Video{}).Count(&count)
	if count != 0 {
		t.Errorf("videos = %d, want 0", count)
	}
}

func TestUploadRollsBackMediaWhenInsertFails(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice")
	if err := env.db.Migrator().DropTable(&model.Video{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	_, err := env.uploads.Upload(context.Background(), uploadInput(owner.ID))
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("Upload() error = %v, want internal error", err)
	}
	if len(env.store.deletes) != 1 || env.store.deletes[0] != "videos/clip.mp4" {
		t.Errorf("deletes = %v, want the uploaded file", env.store.deletes)
	}
}

func TestThumbnailName(t *testing.T) {
	tests := map[string]string{
		"clip.mp4":       "clip_thumb.jpg",
		"clip.final.mov": "clip.final_thumb.jpg",
		"noext":          "noext_thumb.jpg",
	}
	for in, want := range tests {
		if got := thumbnailName(in); got != want {
			t.Errorf("thumbnailName(%q) = %q, want %q", in, got, want)
		}
	}
}
