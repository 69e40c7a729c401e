package flagged

import (
	"fmt"
	"strings"
)

// FlagKind identifies how a parsed node deviated from a literal reading of
// the model output.
type FlagKind uint8

const (
	FlagOptionalDefaultFromNoValue FlagKind = iota
	FlagDefaultFromNoValue
	FlagDefaultButHadValue
	FlagDefaultButHadUnparseableValue
	FlagObjectToString
	FlagObjectToPrimitive
	FlagObjectToMap
	FlagExtraKey
	FlagStrippedNonAlphaNumeric
	FlagSubstringMatch
	FlagImpliedKey
	FlagJSONToString
	FlagSingleToArray
	FlagArrayItemParseError
	FlagMapKeyParseError
	FlagMapValueParseError
	FlagEnumOneFromMany
	FlagStringToBool
	FlagStringToNull
	FlagStringToChar
	FlagStringToFloat
	FlagFloatToInt
	FlagNoFields
	FlagUnionMatch
	FlagFirstMatch
	FlagConstraintResults
	FlagIncomplete
	FlagPending
)

var flagNames = [...]string{
	FlagOptionalDefaultFromNoValue:    "OptionalDefaultFromNoValue",
	FlagDefaultFromNoValue:            "DefaultFromNoValue",
	FlagDefaultButHadValue:            "DefaultButHadValue",
	FlagDefaultButHadUnparseableValue: "DefaultButHadUnparseableValue",
	FlagObjectToString:                "ObjectToString",
	FlagObjectToPrimitive:             "ObjectToPrimitive",
	FlagObjectToMap:                   "ObjectToMap",
	FlagExtraKey:                      "ExtraKey",
	FlagStrippedNonAlphaNumeric:       "StrippedNonAlphaNumeric",
	FlagSubstringMatch:                "SubstringMatch",
	FlagImpliedKey:                    "ImpliedKey",
	FlagJSONToString:                  "JsonToString",
	FlagSingleToArray:                 "SingleToArray",
	FlagArrayItemParseError:           "ArrayItemParseError",
	FlagMapKeyParseError:              "MapKeyParseError",
	FlagMapValueParseError:            "MapValueParseError",
	FlagEnumOneFromMany:               "EnumOneFromMany",
	FlagStringToBool:                  "StringToBool",
	FlagStringToNull:                  "StringToNull",
	FlagStringToChar:                  "StringToChar",
	FlagStringToFloat:                 "StringToFloat",
	FlagFloatToInt:                    "FloatToInt",
	FlagNoFields:                      "NoFields",
	FlagUnionMatch:                    "UnionMatch",
	FlagFirstMatch:                    "FirstMatch",
	FlagConstraintResults:             "ConstraintResults",
	FlagIncomplete:                    "Incomplete",
	FlagPending:                       "Pending",
}

func (k FlagKind) String() string {
	if int(k) < len(flagNames) {
		return flagNames[k]
	}
	return "Unknown"
}

// ParseFlagKind looks a kind up by name, ignoring case.
func ParseFlagKind(name string) (FlagKind, bool) {
	for i, n := range flagNames {
		if strings.EqualFold(n, name) {
			return FlagKind(i), true
		}
	}
	return 0, false
}

// ConstraintResult is the outcome of evaluating one constraint on a node.
type ConstraintResult struct {
	Name       string `json:"name" yaml:"name"`
	Expression string `json:"expression" yaml:"expression"`
	Passed     bool   `json:"passed" yaml:"passed"`
}

// Flag is one provenance marker. Which payload fields are set depends on
// the kind.
type Flag struct {
	Kind    FlagKind
	Index   int
	Key     string
	Value   string
	Cause   *ParsingError
	Matches []string
	Results []ConstraintResult
}

func OptionalDefaultFromNoValue() Flag { return Flag{Kind: FlagOptionalDefaultFromNoValue} }
func DefaultFromNoValue() Flag         { return Flag{Kind: FlagDefaultFromNoValue} }
func ObjectToString() Flag             { return Flag{Kind: FlagObjectToString} }
func ObjectToPrimitive() Flag          { return Flag{Kind: FlagObjectToPrimitive} }
func ObjectToMap() Flag                { return Flag{Kind: FlagObjectToMap} }
func StrippedNonAlphaNumeric() Flag    { return Flag{Kind: FlagStrippedNonAlphaNumeric} }
func SubstringMatch() Flag             { return Flag{Kind: FlagSubstringMatch} }
func ImpliedKey() Flag                 { return Flag{Kind: FlagImpliedKey} }
func JSONToString() Flag               { return Flag{Kind: FlagJSONToString} }
func SingleToArray() Flag              { return Flag{Kind: FlagSingleToArray} }
func StringToBool() Flag               { return Flag{Kind: FlagStringToBool} }
func StringToNull() Flag               { return Flag{Kind: FlagStringToNull} }
func StringToChar() Flag               { return Flag{Kind: FlagStringToChar} }
func StringToFloat() Flag              { return Flag{Kind: FlagStringToFloat} }
func FloatToInt() Flag                 { return Flag{Kind: FlagFloatToInt} }
func NoFields() Flag                   { return Flag{Kind: FlagNoFields} }
func Incomplete() Flag                 { return Flag{Kind: FlagIncomplete} }
func Pending() Flag                    { return Flag{Kind: FlagPending} }

// DefaultButHadValue marks a default that replaced a value which was present.
func DefaultButHadValue(raw string) Flag {
	return Flag{Kind: FlagDefaultButHadValue, Value: raw}
}

func DefaultButHadUnparseableValue(cause *ParsingError) Flag {
	return Flag{Kind: FlagDefaultButHadUnparseableValue, Cause: cause}
}

// ExtraKey records a key in the output that the class does not declare.
func ExtraKey(key, raw string) Flag {
	return Flag{Kind: FlagExtraKey, Key: key, Value: raw}
}

func ArrayItemParseError(index int, cause *ParsingError) Flag {
	return Flag{Kind: FlagArrayItemParseError, Index: index, Cause: cause}
}

func MapKeyParseError(index int, cause *ParsingError) Flag {
	return Flag{Kind: FlagMapKeyParseError, Index: index, Cause: cause}
}

func MapValueParseError(key string, cause *ParsingError) Flag {
	return Flag{Kind: FlagMapValueParseError, Key: key, Cause: cause}
}

// EnumOneFromMany records that several variants matched and one was picked.
func EnumOneFromMany(matches ...string) Flag {
	return Flag{Kind: FlagEnumOneFromMany, Matches: matches}
}

func UnionMatch(index int) Flag { return Flag{Kind: FlagUnionMatch, Index: index} }
func FirstMatch(index int) Flag { return Flag{Kind: FlagFirstMatch, Index: index} }

func ConstraintResults(results ...ConstraintResult) Flag {
	return Flag{Kind: FlagConstraintResults, Results: results}
}

// Score is the penalty for this flag. Lower totals rank a parse higher.
func (f Flag) Score() int {
	switch f.Kind {
	case FlagOptionalDefaultFromNoValue, FlagObjectToMap, FlagExtraKey,
		FlagSingleToArray, FlagMapKeyParseError, FlagMapValueParseError,
		FlagEnumOneFromMany, FlagStringToBool, FlagStringToNull, FlagStringToChar,
		FlagStringToFloat, FlagFloatToInt, FlagNoFields, FlagFirstMatch:
		return 1
	case FlagDefaultButHadUnparseableValue, FlagObjectToString, FlagObjectToPrimitive,
		FlagSubstringMatch, FlagImpliedKey, FlagJSONToString:
		return 2
	case FlagStrippedNonAlphaNumeric:
		return 3
	case FlagArrayItemParseError:
		return 1 + f.Index
	case FlagDefaultFromNoValue:
		return 100
	case FlagDefaultButHadValue:
		return 110
	}
	// UnionMatch, ConstraintResults, Incomplete, Pending
	return 0
}

func (f Flag) String() string {
	name := f.Kind.String()
	switch f.Kind {
	case FlagArrayItemParseError, FlagMapKeyParseError, FlagUnionMatch, FlagFirstMatch:
		return fmt.Sprintf("%s(%d)", name, f.Index)
	case FlagMapValueParseError:
		return fmt.Sprintf("%s(%s)", name, f.Key)
	case FlagExtraKey:
		return fmt.Sprintf("%s(%s=%s)", name, f.Key, f.Value)
	case FlagDefaultButHadValue:
		return fmt.Sprintf("%s(%s)", name, f.Value)
	case FlagEnumOneFromMany:
		return fmt.Sprintf("%s(%s)", name, strings.Join(f.Matches, ", "))
	case FlagConstraintResults:
		parts := make([]string, len(f.Results))
		for i, r := range f.Results {
			parts[i] = fmt.Sprintf("%s=%t", r.Name, r.Passed)
		}
		return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
	}
	return name
}
