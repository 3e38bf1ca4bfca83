package lang2query

// Version is the library version, overridable at build time with
// -ldflags "-X github.com/nithiin7/lang2query.Version=...".
var Version = "0.1.0"
