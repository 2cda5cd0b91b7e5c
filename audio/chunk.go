package audio

import (
	"strings"
	"time"
)

// Split cuts a long segment into chunks no longer than chunkDur, each
// chunk after the first starting overlap earlier than the previous one
// ended so words at the boundary are not lost. Chunk boundaries stay
// frame-aligned.
func Split(seg Segment, chunkDur, overlap time.Duration) []Segment {
	if chunkDur <= 0 || seg.Duration <= chunkDur {
		return []Segment{seg}
	}

	frameSize := int(seg.Channels) * 2
	bytesPerSecond := int(seg.SampleRate) * frameSize

	chunkBytes := alignFrame(int(chunkDur.Seconds()*float64(bytesPerSecond)), frameSize)
	overlapBytes := alignFrame(int(overlap.Seconds()*float64(bytesPerSecond)), frameSize)
	if chunkBytes <= 0 {
		return []Segment{seg}
	}

	var chunks []Segment
	for start := 0; start < len(seg.Data); start += chunkBytes {
		from := start
		if from > 0 {
			from -= overlapBytes
		}
		to := start + chunkBytes
		if to > len(seg.Data) {
			to = len(seg.Data)
		}

		data := seg.Data[from:to]
		chunks = append(chunks, Segment{
			Data:       data,
			SampleRate: seg.SampleRate,
			Channels:   seg.Channels,
			Duration:   time.Duration(len(data)/frameSize) * time.Second / time.Duration(seg.SampleRate),
		})
	}

	return chunks
}

func alignFrame(n, frameSize int) int {
	return n - n%frameSize
}

// MergeTranscripts joins chunk transcripts, dropping words repeated at
// chunk boundaries by the recording overlap. Up to overlapWords of the
// next chunk's opening are matched against the merged tail.
func MergeTranscripts(parts []string, overlapWords int) string {
	if len(parts) == 0 {
		return ""
	}

	merged := parts[0]
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if strings.TrimSpace(merged) == "" {
			merged = part
			continue
		}

		mergedWords := strings.Fields(merged)
		partWords := strings.Fields(part)

		max := overlapWords
		if max > len(mergedWords) {
			max = len(mergedWords)
		}
		if max > len(partWords) {
			max = len(partWords)
		}

		dropped := 0
		for k := max; k > 0; k-- {
			if wordsEqualFold(mergedWords[len(mergedWords)-k:], partWords[:k]) {
				dropped = k
				break
			}
		}

		merged = merged + " " + strings.Join(partWords[dropped:], " ")
	}

	return merged
}

func wordsEqualFold(a, b []string) bool {
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
