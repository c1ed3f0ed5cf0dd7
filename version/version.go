package version

// Version is the current release of the safeher CLI & server.
const Version = "0.1.0"
