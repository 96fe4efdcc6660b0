// Package workflow recovers node-graph workflows embedded in PNG metadata and
// derives prompt information from them.
//
// # Overview
//
// Image generation tools such as ComfyUI store the node graph that produced an
// image inside the image's tEXt/iTXt chunks. The text is close to JSON but not
// quite: it is introduced by a bare "workflow" keyword instead of a proper key,
// and lacks the enclosing object. This package turns that text back into a
// [Workflow] and classifies its text-encoding nodes as positive or negative
// prompts.
//
// # Pipeline
//
// The stages are exposed individually and composed by [Extractor]:
//
//  1. [Scan]: pick the text chunks and decode them
//  2. [Repair]: rewrite the marker into valid JSON and parse it
//  3. [Resolve]: locate the workflow object, its nodes and links
//  4. [Classify]: trace links to decide each prompt's polarity
//
// A chunk that fails at any stage is skipped; only "nothing found in any chunk"
// and "the image could not be decoded" are reported to callers.
//
// # Links
//
// Links exist in two shapes: the positional array
// [id, origin_id, origin_slot, target_id, target_slot, type] and an object
// with those names. [EncodeLink] and [EncodeLinks] normalize both to the
// array shape used for export, coercing fields the way a JavaScript
// Number()/String() call would.
//
// # Concurrency
//
// All functions are pure over their inputs. An [Extractor] holds only
// configuration and may be shared between goroutines.
package workflow
