package llmpipeline

import "github.com/audiobound/audiobound/pkg/types"

// speakerCodeAlphabet enumerates single-character speaker codes in the
// fixed order spec §4.2 describes: upper-case letters, digits, then
// lower-case letters. It is large enough for any realistic character
// count (62 codes); a manuscript needing more is not something this
// system is designed to handle.
func speakerCodeAlphabet() []rune {
	var alphabet []rune
	for c := 'A'; c <= 'Z'; c++ {
		alphabet = append(alphabet, c)
	}
	for c := '0'; c <= '9'; c++ {
		alphabet = append(alphabet, c)
	}
	for c := 'a'; c <= 'z'; c++ {
		alphabet = append(alphabet, c)
	}
	return alphabet
}

// CodeSet is the bidirectional mapping between speaker codes and character
// canonical names used by the Assign stage, including the three sentinel
// codes for unnamed speakers.
type CodeSet struct {
	CodeToName map[string]string
	NameToCode map[string]string
}

// Valid reports whether code is a known speaker code (character code or
// sentinel).
func (s *CodeSet) Valid(code string) bool {
	_, ok := s.CodeToName[code]
	return ok
}

// BuildCodeSet assigns one single-character code per character in order,
// plus the three unnamed-speaker sentinels.
func BuildCodeSet(characters []*types.Character) *CodeSet {
	alphabet := speakerCodeAlphabet()
	set := &CodeSet{
		CodeToName: make(map[string]string, len(characters)+3),
		NameToCode: make(map[string]string, len(characters)),
	}
	for i, c := range characters {
		if i >= len(alphabet) {
			break
		}
		code := string(alphabet[i])
		set.CodeToName[code] = c.Canonical
		set.NameToCode[c.Canonical] = code
	}
	set.CodeToName[types.MaleUnnamed] = types.MaleUnnamed
	set.CodeToName[types.FemaleUnnamed] = types.FemaleUnnamed
	set.CodeToName[types.UnknownUnnamed] = types.UnknownUnnamed
	return set
}

// Labels returns a prompt-ready {code: displayLabel} map for
// promptschema.BuildAssignPrompt.
func (s *CodeSet) Labels() map[string]string {
	labels := make(map[string]string, len(s.CodeToName))
	for code, name := range s.CodeToName {
		labels[code] = name
	}
	return labels
}

// SpeakerFor resolves a speaker code to the name used in a
// SpeakerAssignment: a character canonical name, or the sentinel name
// itself for unnamed-speaker sentinels (their voices come from the sentinel
// keys of the voice map, which hold the rare voices). An unknown code
// resolves to types.NarratorSpeaker.
func (s *CodeSet) SpeakerFor(code string) string {
	name, ok := s.CodeToName[code]
	if !ok {
		return types.NarratorSpeaker
	}
	switch name {
	case types.MaleUnnamed, types.FemaleUnnamed, types.UnknownUnnamed:
		return name
	default:
		return name
	}
}
