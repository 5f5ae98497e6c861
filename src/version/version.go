package version

// Version is the current release of offline-backup.
var Version = "0.1.0"
