// Package capcode implements capcode, a reversible case-folding text codec.
//
// capcode removes capitalization from text and records it as a handful of
// inline marker tokens, so that a tokenizer trained on the output only ever
// sees lowercase words while the original casing stays exactly recoverable.
//
// # Tokens
//
// Four reserved scalar values make up an Alphabet:
//
//	BEGIN      start of a capitalized run (closed by END)
//	END        end of a run of three or more fully capitalized words
//	WORD       the following word is uppercase
//	CHARACTER  the next character is uppercase
//
// With the default LetterAlphabet these are B, E, W and C:
//
//	Hello                 -> Chello
//	HELLO                 -> Whello
//	HELLO WORLD           -> Whello Wworld
//	THE QUICK BROWN fox   -> Bthe quick brownE fox
//	iPhone                -> iCphone
//
// An uppercase letter never survives encoding, so uppercase markers cannot be
// confused with input. Alphabets built from other scalar values (such as
// ControlAlphabet) make Encode reject any input that already contains one of
// them.
//
// # Words
//
// A word is a maximal span of letters, digits, apostrophes (' and ’) and
// combining marks. Combining marks (general category M) belong to the letter
// before them.
//
// # Streaming
//
// Decoding is a three-flag state machine. State carries those flags between
// calls, Decoder adapts it to golang.org/x/text/transform, and NewReader wraps
// an io.Reader. Encoding may rewrite markers inside an open capitalized run,
// so the streaming Writer holds back the part of a run that can still change
// and emits the rest as it goes.
//
// Normalization is the caller's business: capcode works on whatever scalar
// values it is given.
package capcode
