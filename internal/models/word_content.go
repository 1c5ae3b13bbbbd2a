package models

import (
	"strings"
	"time"
)

// PartOfSpeech is the closed set of word classes the content store accepts
type PartOfSpeech string

const (
	PosNoun         PartOfSpeech = "NOUN"
	PosVerb         PartOfSpeech = "VERB"
	PosAdjective    PartOfSpeech = "ADJ"
	PosAdverb       PartOfSpeech = "ADV"
	PosPronoun      PartOfSpeech = "PRON"
	PosDeterminer   PartOfSpeech = "DET"
	PosPreposition  PartOfSpeech = "PREP"
	PosConjunction  PartOfSpeech = "CONJ"
	PosNumeral      PartOfSpeech = "NUM"
	PosParticle     PartOfSpeech = "PART"
	PosInterjection PartOfSpeech = "INTJ"
)

// posAliases maps spelled-out or lowercase variants onto the closed enum
var posAliases = map[string]PartOfSpeech{
	"NOUN":         PosNoun,
	"VERB":         PosVerb,
	"ADJ":          PosAdjective,
	"ADJECTIVE":    PosAdjective,
	"ADV":          PosAdverb,
	"ADVERB":       PosAdverb,
	"PRON":         PosPronoun,
	"PRONOUN":      PosPronoun,
	"DET":          PosDeterminer,
	"DETERMINER":   PosDeterminer,
	"ARTICLE":      PosDeterminer,
	"PREP":         PosPreposition,
	"PREPOSITION":  PosPreposition,
	"CONJ":         PosConjunction,
	"CONJUNCTION":  PosConjunction,
	"NUM":          PosNumeral,
	"NUMERAL":      PosNumeral,
	"NUMBER":       PosNumeral,
	"PART":         PosParticle,
	"PARTICLE":     PosParticle,
	"INTJ":         PosInterjection,
	"INTERJECTION": PosInterjection,
}

// ParsePartOfSpeech coerces a free-form value into the closed enum.
// The second return value is false when the value is unrecognized.
func ParsePartOfSpeech(s string) (PartOfSpeech, bool) {
	key := strings.ToUpper(strings.TrimSpace(strings.Trim(strings.TrimSpace(s), ".")))
	pos, ok := posAliases[key]
	return pos, ok
}

// Gender is the closed set of grammatical genders
type Gender string

const (
	GenderMasculine Gender = "masc"
	GenderFeminine  Gender = "fem"
	GenderNeuter    Gender = "neut"
	GenderCommon    Gender = "common"
	GenderNone      Gender = "none"
)

var genderAliases = map[string]Gender{
	"masc":      GenderMasculine,
	"masculine": GenderMasculine,
	"m":         GenderMasculine,
	"fem":       GenderFeminine,
	"feminine":  GenderFeminine,
	"f":         GenderFeminine,
	"neut":      GenderNeuter,
	"neuter":    GenderNeuter,
	"n":         GenderNeuter,
	"common":    GenderCommon,
	"c":         GenderCommon,
	"none":      GenderNone,
}

// ParseGender coerces a free-form value into the closed enum,
// defaulting to "none" on anything unrecognized
func ParseGender(s string) Gender {
	if g, ok := genderAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return g
	}
	return GenderNone
}

// WordContent is a shared content-store entry: enriched metadata for one
// (word, language, native language) triple, keyed by its identity hash
type WordContent struct {
	ID            int64
	WordHash      string
	Word          string
	Language      string
	NativeLang    string
	Translation   string
	Example       string
	ExampleNative string
	Lemma         string
	PartOfSpeech  string
	IPA           string
	AudioFile     string
	Gender        string
	Plural        string
	Conjugation   string
	Comparison    string
	Synonyms      string
	Collocations  string
	CEFRLevel     string
	FrequencyRank int
	Tags          string
	Note          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Complete reports whether the entry has been enriched far enough that
// batch enrichment may skip it (cost control, not correctness)
func (w *WordContent) Complete() bool {
	return w.Translation != "" && w.PartOfSpeech != ""
}
