package insight

import "sort"

// TopicCount pairs a topic with its number of occurrences.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Summary aggregates a batch of insights.
type Summary struct {
	Count           int            `json:"count"`
	AvgSentiment    float64        `json:"avg_sentiment"`
	Categories      map[string]int `json:"categories"`
	Sources         map[string]int `json:"sources"`
	TopTopics       []TopicCount   `json:"top_topics"`
	FeatureRequests int            `json:"feature_requests"`
}

// maxTopTopics bounds Summary.TopTopics.
const maxTopTopics = 10

// Summarize computes counts and averages over insights.
func Summarize(insights []CommunityInsight) Summary {
	s := Summary{
		Count:      len(insights),
		Categories: make(map[string]int),
		Sources:    make(map[string]int),
		TopTopics:  []TopicCount{},
	}
	if len(insights) == 0 {
		return s
	}

	topics := make(map[string]int)
	var order []string
	var sentimentSum float64
	for _, in := range insights {
		s.Categories[in.Category]++
		s.Sources[string(in.Source)]++
		sentimentSum += in.Sentiment
		if in.Category == CategoryFeatureRequest {
			s.FeatureRequests++
		}
		for _, t := range in.Topics {
			if topics[t] == 0 {
				order = append(order, t)
			}
			topics[t]++
		}
	}
	s.AvgSentiment = sentimentSum / float64(len(insights))

	for _, t := range order {
		s.TopTopics = append(s.TopTopics, TopicCount{Topic: t, Count: topics[t]})
	}
	// Stable keeps first-seen order among equal counts.
	sort.SliceStable(s.TopTopics, func(i, j int) bool {
		return s.TopTopics[i].Count > s.TopTopics[j].Count
	})
	if len(s.TopTopics) > maxTopTopics {
		s.TopTopics = s.TopTopics[:maxTopTopics]
	}
	return s
}
