// Package tenken is the Composition Root for the tenken inspection checklist.
//
// It connects the core domain (checklist schema, templates, inspection areas
// and their answers) with the storage adapters using the Hexagonal
// Architecture pattern.
//
// A Session owns the active checklist, the template library and the answer
// state of every inspection area. Whenever the checklist changes, answers for
// items that no longer exist are dropped before anyone can observe them.
// Answer edits are written after a short quiet period; template and checklist
// edits are written at once.
//
// Features:
//
//   - **Strict checklist documents**: ParseSchema rejects malformed or
//     duplicated categories and items with a located error.
//   - **Templates**: named checklists with a protected built-in template.
//   - **Areas**: repeatable sub-units, each with its own answers and notes.
//   - **Pluggable storage**: files (default), SQLite, Redis or memory via
//     core.Storage.
//
// Usage:
//
//	sess, err := tenken.Open(ctx, ".tenken",
//		tenken.WithLogger(logger),
//	)
//	defer sess.Close(ctx)
//
//	_, err = sess.SetAnswer(sess.ActiveAreaID(), "entrance-doors", core.AnswerPatch{Status: &status})
package tenken
