package service

import "math/rand"

// TopicPool is the fixed set of scenario topic tags. Generation is biased
// away from topics a room has already seen.
var TopicPool = []string{
	"cyberbullying",
	"identity-theft",
	"illegal-access",
	"cyber-libel",
	"data-privacy",
	"online-scams",
	"phishing",
	"computer-related-fraud",
	"prevention-bystander",
}

// PickTopic chooses a topic not yet used in this room. Once the whole pool is
// exhausted, anything goes except the most recently used topic.
func PickTopic(previousTopics []string) string {
	used := make(map[string]bool, len(previousTopics))
	for _, t := range previousTopics {
		used[t] = true
	}

	available := make([]string, 0, len(TopicPool))
	for _, t := range TopicPool {
		if !used[t] {
			available = append(available, t)
		}
	}

	if len(available) == 0 {
		var lastUsed string
		if len(previousTopics) > 0 {
			lastUsed = previousTopics[len(previousTopics)-1]
		}
		for _, t := range TopicPool {
			if t != lastUsed {
				available = append(available, t)
			}
		}
	}

	return available[rand.Intn(len(available))]
}
