// Package domain contains the core domain types used by the application.
// These types represent business concepts (solutions and their rendered
// pages) and are intentionally free of infrastructure concerns so they can
// be shared across packages.
package domain
