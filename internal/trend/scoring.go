package trend

import (
	"math"
	"time"

	"trendag/internal/models"
)

const (
	// velocitySaturation is the mentions-per-hour rate at which the velocity
	// component reaches 1.0.
	velocitySaturation = 10.0

	maxPlatformTypes = 3
)

// frequencyScore log-scales the mention count; 100 mentions saturate it.
func frequencyScore(mentions int) float64 {
	if mentions <= 0 {
		return 0
	}
	return clamp(math.Log10(float64(mentions)+1) / 2)
}

// velocityScore measures mentions per hour over the topic's observed span,
// saturating at velocitySaturation.
func velocityScore(topic *models.Topic, now time.Time) float64 {
	span := topic.LastSeen.Sub(topic.FirstSeen)
	hours := span.Hours()
	if hours < 1 {
		hours = 1
	}
	perHour := float64(topic.TotalMentions) / hours
	return clamp(perHour / velocitySaturation)
}

// engagementScore log-scales average engagement; 10k average saturates it.
func engagementScore(avg float64) float64 {
	if avg <= 0 {
		return 0
	}
	return clamp(math.Log10(avg+1) / 4)
}

// crossPlatformScore is the fraction of provider types reached, capped at
// three types.
func crossPlatformScore(platforms int) float64 {
	if platforms > maxPlatformTypes {
		platforms = maxPlatformTypes
	}
	return float64(platforms) / maxPlatformTypes
}

// recencyScore is a step function over the age of the last mention.
func recencyScore(lastSeen, now time.Time) float64 {
	age := now.Sub(lastSeen)
	switch {
	case age < time.Hour:
		return 1.0
	case age < 6*time.Hour:
		return 0.7
	case age < 24*time.Hour:
		return 0.4
	default:
		return 0.1
	}
}
