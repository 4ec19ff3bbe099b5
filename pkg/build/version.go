package build

// Version is the binary's version string. Overridden at link time via
// -ldflags "-X github.com/vodworks/video-delivery/pkg/build.Version=...".
var Version = "v0.0.0-dev"
