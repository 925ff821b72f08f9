package model

// VoteValue 用1和-1存储，方便直接SUM
type VoteValue int8

const (
	VoteLike    VoteValue = 1
	VoteDislike VoteValue = -1
)

// String 返回接口层使用的方向名："like" / "dislike"
func (v VoteValue) String() string {
	switch v {
	case VoteLike:
		return "like"
	case VoteDislike:
		return "dislike"
	}
	return ""
}

// ParseVoteValue 只接受"like"和"dislike"两个字面量，区分大小写
func ParseVoteValue(s string) (VoteValue, bool) {
	switch s {
	case "like":
		return VoteLike, true
	case "dislike":
		return VoteDislike, true
	}
	return 0, false
}

// 用户对视频的投票，uniqueIndex保证一个用户对一个视频最多一条记录
type VideoVote struct {
	BaseModel
	UserID  uint64    `gorm:"not null;uniqueIndex:idx_vote_user_video"`
	VideoID uint64    `gorm:"not null;uniqueIndex:idx_vote_user_video;index"`
	Value   VoteValue `gorm:"type:smallint;not null"`
}

func (VideoVote) TableName() string {
	return "video_votes"
}
