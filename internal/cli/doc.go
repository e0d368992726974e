// Package cli implements the linkdrop command line on top of app.Context.
//
// Every command is one-shot: it loads config, opens the Context, performs a
// single operation and closes the Context again. The active identity
// survives between invocations through the database and the key directory.
//
// Two command trees are exposed:
//
//   - NewRootCommand for the main linkdrop binary (identity, contacts,
//     relays, posts, draining the share queue);
//   - NewShareCommand for linkdrop-share, which only touches the shared
//     container and never opens the database.
package cli
