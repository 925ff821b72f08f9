package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// result: success / invalid / remote_error / internal_error
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orion_tube_uploads_total",
		Help: "Video upload attempts by result.",
	}, []string{"result"})

	// transition: created / removed / switched
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orion_tube_votes_total",
		Help: "Applied vote state transitions.",
	}, []string{"transition"})

	// 被吞掉的媒体托管失败，op同MediaFailureMessage.Op
	MediaFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orion_tube_media_failures_total",
		Help: "Remote media operations that failed without failing the request.",
	}, []string{"op"})

	VideoViewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orion_tube_video_views_total",
		Help: "Video detail views recorded.",
	})

	FeedCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orion_tube_feed_cache_total",
		Help: "Feed cache lookups by outcome.",
	}, []string{"outcome"})
)
