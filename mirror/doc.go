// Package mirror replicates one source repository's complete ref set into
// its destination repository.
//
// Each transfer clones the source as a full mirror into an ephemeral scratch
// directory, makes sure the destination repository exists (creating it on
// demand), re-points the working remote at the destination and performs a
// mirror push. The scratch directory is released on every exit path, a second
// transfer of an unchanged source is a no-op on the destination.
//
// The implementation shells out to the git binary, the same transport git
// itself uses, rather than reimplementing the wire protocol.
package mirror
