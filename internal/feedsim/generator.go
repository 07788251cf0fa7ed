package feedsim

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	voterArchetypes    = 3
)

// Constants for project metric ranges.
const (
	basePriceMin   = 0.0001
	basePriceRange = 0.05
	liquidityMin   = 10_000.0
	liquidityRange = 990_000.0
	volumeMin      = 1_000.0
	volumeRange    = 499_000.0
)

// Voter archetype cases.
const (
	caseBullishVoter = 0
	caseNeutralVoter = 1
	caseBearishVoter = 2
)

// Name fragments for generated meme projects.
var (
	namePrefixes = []string{"Pepe", "Doge", "Moon", "Giga", "Turbo", "Baby", "Shiba", "Wojak", "Chad", "Frog"}
	nameSuffixes = []string{"Coin", "Inu", "Rocket", "Classic", "Finance", "Chain", "Swap", "Protocol", "Mars", "AI"}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, max).
func getRandomInt(maxExclusive int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(maxExclusive)))
	return int(n.Int64())
}

// generateSubmissions creates numProjects project submissions with unique
// symbols.
func generateSubmissions(numProjects int) []ProjectSubmission {
	subs := make([]ProjectSubmission, numProjects)
	for i := range subs {
		prefix := namePrefixes[getRandomInt(len(namePrefixes))]
		suffix := nameSuffixes[getRandomInt(len(nameSuffixes))]
		subs[i] = ProjectSubmission{
			Name:      prefix + " " + suffix,
			Symbol:    symbolFor(prefix, suffix, i),
			Liquidity: liquidityMin + getRandomFloat()*liquidityRange,
			Volume24h: volumeMin + getRandomFloat()*volumeRange,
			Price:     basePriceMin + getRandomFloat()*basePriceRange,
		}
	}
	return subs
}

// symbolFor builds a unique ticker symbol. The index keeps collisions out
// even when the name fragments repeat.
func symbolFor(prefix, suffix string, index int) string {
	return string(prefix[0]) + string(suffix[0]) + strconv.Itoa(index)
}

// generateRatings produces a ballot from one of three voter archetypes so
// the simulated scores spread across the approval threshold.
func generateRatings() Ratings {
	switch getRandomInt(voterArchetypes) {
	case caseBullishVoter:
		// Raters who love everything (4-5).
		return Ratings{
			Meme:      4 + getRandomInt(2),
			Roadmap:   4 + getRandomInt(2),
			Growth:    4 + getRandomInt(2),
			Narrative: 4 + getRandomInt(2),
			Utility:   4 + getRandomInt(2),
		}
	case caseBearishVoter:
		// Raters who trust nothing (1-2).
		return Ratings{
			Meme:      1 + getRandomInt(2),
			Roadmap:   1 + getRandomInt(2),
			Growth:    1 + getRandomInt(2),
			Narrative: 1 + getRandomInt(2),
			Utility:   1 + getRandomInt(2),
		}
	default:
		// Mixed raters (2-4).
		return Ratings{
			Meme:      2 + getRandomInt(3),
			Roadmap:   2 + getRandomInt(3),
			Growth:    2 + getRandomInt(3),
			Narrative: 2 + getRandomInt(3),
			Utility:   2 + getRandomInt(3),
		}
	}
}

// generateSnapshot produces the step-th feed snapshot for a project whose
// listing price is basePrice. The price walks up or down a few percent per
// step; timestamps are spaced one second apart so dedupe never collapses
// distinct deliveries.
func generateSnapshot(basePrice float64, step int) Snapshot {
	drift := 1.0 + (getRandomFloat()-0.5)*0.1
	price := basePrice
	for i := 0; i < step; i++ {
		price *= drift
	}
	return Snapshot{
		Liquidity:       liquidityMin + getRandomFloat()*liquidityRange,
		Volume24h:       volumeMin + getRandomFloat()*volumeRange,
		HolderGrowth:    (getRandomFloat() - 0.3) * 50,
		PriceVolatility: getRandomFloat() * 80,
		SocialMentions:  getRandomInt(5000),
		Price:           price,
		Timestamp:       time.Now().UTC().Add(time.Duration(step) * time.Second).Format(time.RFC3339Nano),
	}
}
