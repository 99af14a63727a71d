// Package slashy is the runtime half of slashygen.
//
// Code produced by slashygen calls into this package: it resolves the
// invoking member and channel through an Invocation, classifies the channel
// with AsGuildChannel, evaluates Predicate values in declared order and
// reports denials with *Error. The package also adapts generated handlers to
// the pkg/cmd dispatch table and routes discordgo interactions into it.
//
// A handler source file is excluded from normal builds and annotated:
//
//	//go:build slashy
//
//	//slashy:subcommand false, IsModerator
//	func Warn(cc *slashy.CommandContext) error {
//		return cc.Respond("warned")
//	}
//
// Running slashygen writes Warn with the signature
//
//	func Warn(cc *slashy.CommandContext) func(context.Context) error
//
// into warn_slashy.go, and a variant that calls IsModerator() with no
// arguments into warn_slashy_testprofile.go, selected by the slashytest tag.
package slashy
