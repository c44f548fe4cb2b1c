// Package topics ranks salient keyphrases in free text. The primary path is
// keyphrase scoring over word co-occurrence within candidate phrases; when it
// produces nothing usable, a plain stopword-filtered frequency count takes
// over.
package topics

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/shreyasbhat/talentlens/pkg/models"
)

var (
	rePhraseBoundary = regexp.MustCompile(`[.,;:!?()\[\]{}"\n\r\t]+`)
	reWord           = regexp.MustCompile(`[a-z][a-z']*`)
)

var errNoCandidates = errors.New("no candidate phrases")

// DefaultMaxTopics bounds the returned list when the caller passes 0.
const DefaultMaxTopics = 5

// Extract returns up to maxTopics ranked topics for a text, most relevant
// first. Empty or whitespace-only input returns an empty list without
// invoking either extraction path.
func Extract(text string, maxTopics int) []models.Topic {
	if strings.TrimSpace(text) == "" {
		return []models.Topic{}
	}
	if maxTopics <= 0 {
		maxTopics = DefaultMaxTopics
	}

	ranked, err := rankPhrases(text)
	if err != nil {
		ranked = frequencyFallback(text)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > maxTopics {
		ranked = ranked[:maxTopics]
	}
	return ranked
}

// rankPhrases implements keyphrase scoring: candidate phrases are maximal
// runs of non-stopwords, each word gets degree/frequency statistics from the
// co-occurrence within its phrases, and a phrase scores the sum of its word
// scores.
func rankPhrases(text string) ([]models.Topic, error) {
	phrases := candidatePhrases(text)
	if len(phrases) == 0 {
		return nil, errNoCandidates
	}

	freq := map[string]int{}
	degree := map[string]int{}
	for _, phrase := range phrases {
		for _, w := range phrase {
			freq[w]++
			degree[w] += len(phrase)
		}
	}

	wordScore := func(w string) float64 {
		return float64(degree[w]) / float64(freq[w])
	}

	// Deduplicate phrases, keeping the best score per tag.
	best := map[string]float64{}
	for _, phrase := range phrases {
		score := 0.0
		for _, w := range phrase {
			score += wordScore(w)
		}
		tag := strings.Join(phrase, " ")
		if score > best[tag] {
			best[tag] = score
		}
	}

	topics := make([]models.Topic, 0, len(best))
	for tag, score := range best {
		topics = append(topics, models.Topic{Tag: tag, Score: score})
	}
	return topics, nil
}

// candidatePhrases splits text at punctuation and stopwords into runs of
// content words. Phrases longer than 3 words are split to keep tags readable.
func candidatePhrases(text string) [][]string {
	const maxPhraseLen = 3

	var phrases [][]string
	for _, fragment := range rePhraseBoundary.Split(strings.ToLower(text), -1) {
		var current []string
		flush := func() {
			if len(current) > 0 {
				phrases = append(phrases, current)
				current = nil
			}
		}
		for _, w := range reWord.FindAllString(fragment, -1) {
			if stopwords[w] || len(w) < 3 {
				flush()
				continue
			}
			current = append(current, w)
			if len(current) == maxPhraseLen {
				flush()
			}
		}
		flush()
	}
	return phrases
}

// frequencyFallback counts stopword-filtered, case-normalized tokens.
func frequencyFallback(text string) []models.Topic {
	counts := map[string]int{}
	for _, w := range reWord.FindAllString(strings.ToLower(text), -1) {
		if stopwords[w] || len(w) < 3 {
			continue
		}
		counts[w]++
	}

	topics := make([]models.Topic, 0, len(counts))
	for tag, n := range counts {
		topics = append(topics, models.Topic{Tag: tag, Score: float64(n)})
	}
	return topics
}

// Tags flattens topics to their tag strings, most relevant first.
func Tags(topics []models.Topic) []string {
	tags := make([]string, len(topics))
	for i, t := range topics {
		tags[i] = t.Tag
	}
	return tags
}
