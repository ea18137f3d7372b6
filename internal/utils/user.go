package utils

import (
	"math/rand/v2"
)

var avatarEmojis = []string{"🌱", "🌿", "🍃", "🌾", "🎋", "🎍", "🌲", "🌳", "🦉", "🦊", "🔬", "🧪", "💡", "🚀"}

// GetRandomEmoji 返回一个随机 emoji 用于默认头像
func GetRandomEmoji() string {
	return avatarEmojis[rand.IntN(len(avatarEmojis))]
}
