package dto

import (
	"Orion_Tube/internal/model"
	"time"
)

type VideoResponse struct {
	ID           uint64    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Views        uint64    `json:"views"`
	Likes        uint64    `json:"likes"`
	Dislikes     uint64    `json:"dislikes"`
	Author       struct {
		ID       uint64 `json:"id"`
		Username string `json:"username"`
	} `json:"author"`
}

// VideoDetailResponse 详情页额外带上当前用户的投票，匿名或没投过为null
type VideoDetailResponse struct {
	VideoResponse
	UserVote *string `json:"user_vote"`
}

type VoteResponse struct {
	Likes    uint64  `json:"likes"`
	Dislikes uint64  `json:"dislikes"`
	UserVote *string `json:"user_vote"`
}

// ToVideoResponse 把DB模型转换为API响应模型，User没有preload时只返回UserID
func ToVideoResponse(video *model.Video) VideoResponse {
	resp := VideoResponse{
		ID:           video.ID,
		CreatedAt:    video.CreatedAt,
		Title:        video.Title,
		Description:  video.Description,
		VideoURL:     video.VideoURL,
		ThumbnailURL: video.ThumbnailURL,
		Views:        video.Views,
		Likes:        video.Likes,
		Dislikes:     video.Dislikes,
	}
	if video.User.ID != 0 {
		resp.Author.ID = video.User.ID
		resp.Author.Username = video.User.Username
	} else {
		resp.Author.ID = video.UserID
	}
	return resp
}

func ToVideoListResponse(videos []model.Video) []VideoResponse {
	resp := make([]VideoResponse, 0, len(videos))
	for i := range videos {
		resp = append(resp, ToVideoResponse(&videos[i]))
	}
	return resp
}

func ToVideoDetailResponse(video *model.Video, userVote *model.VoteValue) VideoDetailResponse {
	return VideoDetailResponse{
		VideoResponse: ToVideoResponse(video),
		UserVote:      VoteString(userVote),
	}
}

// VoteString nil -> null，其他 -> "like" / "dislike"
func VoteString(v *model.VoteValue) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
