// Package main provides a Dagger module for building and deploying the truth or dare bot.
//
// The module is designed to be used with the Dagger CLI or SDKs to automate
// build and deployment workflows.
package main

import (
	"context"
	"dagger/todbot/internal/dagger"
	"fmt"
	"strings"
)

// binaries lists the commands under cmd/ that make up a release.
var binaries = []string{"bot", "db"}

type Todbot struct{}

// goContainer returns a Go toolchain container with src mounted and the
// module caches shared between runs.
func goContainer(src *dagger.Directory, packages ...string) *dagger.Container {
	ctr := dag.Container().
		From("golang:1.24.2-alpine").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithDirectory("/src", src).
		WithWorkdir("/src").
		WithEnvVariable("CGO_ENABLED", "0")

	if len(packages) > 0 {
		ctr = ctr.WithExec(append([]string{"apk", "add", "--no-cache"}, packages...))
	}
	return ctr
}

// BuildContainer creates a container image for the project.
func (m *Todbot) BuildContainer(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Platform to build for
	// +optional
	// +default="linux/amd64"
	platform *dagger.Platform,
) (*dagger.Container, error) {
	// Use default platform if none specified
	buildPlatform := dagger.Platform("linux/amd64")
	if platform != nil {
		buildPlatform = *platform
	}

	// Get architecture using containerd utility
	platformArch, err := dag.Containerd().ArchitectureOf(ctx, buildPlatform)
	if err != nil {
		return nil, fmt.Errorf("failed to get architecture: %w", err)
	}

	buildCtr := goContainer(src, "upx", "ca-certificates").
		WithEnvVariable("GOOS", "linux").
		WithEnvVariable("GOARCH", platformArch).
		WithExec([]string{"mkdir", "-p", "/src/bin", "/src/logs", "/src/data"})

	// Both binaries ship in the image so migrations and imports run in place
	for _, binary := range binaries {
		buildCtr = buildCtr.
			WithExec([]string{"go", "build", "-ldflags=-s -w", "-o", "/src/bin/" + binary, "./cmd/" + binary}).
			WithExec([]string{"upx", "--best", "--lzma", "/src/bin/" + binary})
	}

	// /app/data holds the database file when the sqlite driver is configured
	return dag.Container(dagger.ContainerOpts{Platform: buildPlatform}).
		From("gcr.io/distroless/static-debian12:latest").
		WithDirectory("/app/bin", buildCtr.Directory("/src/bin")).
		WithDirectory("/app/logs", buildCtr.Directory("/src/logs")).
		WithDirectory("/app/data", buildCtr.Directory("/src/data")).
		WithFile("/etc/ssl/certs/ca-certificates.crt", buildCtr.File("/etc/ssl/certs/ca-certificates.crt")).
		WithWorkdir("/app").
		WithEntrypoint([]string{"/app/bin/bot"}), nil
}

// Publish the application container after building and testing it.
func (m *Todbot) Publish(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Docker image name (e.g. "username/repo:tag")
	// +required
	imageName string,
	// Platforms to build for (comma-separated, e.g. "linux/amd64,linux/arm64")
	// +optional
	// +default="linux/amd64"
	platforms string,
) (string, error) {
	if _, err := m.Test(ctx, src); err != nil {
		return "", fmt.Errorf("tests failed: %w", err)
	}

	// Parse platforms string
	var platformList []dagger.Platform
	if platforms == "" {
		platformList = []dagger.Platform{"linux/amd64"}
	} else {
		for _, p := range strings.Split(platforms, ",") {
			platformList = append(platformList, dagger.Platform(strings.TrimSpace(p)))
		}
	}

	// Build containers for each platform
	platformVariants := make([]*dagger.Container, 0, len(platformList))
	for _, platform := range platformList {
		container, err := m.BuildContainer(ctx, src, &platform)
		if err != nil {
			return "", fmt.Errorf("failed to build container for %s: %w", platform, err)
		}
		platformVariants = append(platformVariants, container)
	}

	// Publish multi-arch image
	ref, err := dag.Container().Publish(ctx, imageName, dagger.ContainerPublishOpts{
		PlatformVariants: platformVariants,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish image: %w", err)
	}

	return ref, nil
}

// Run the program with specified command and config files.
func (m *Todbot) Run(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
	// Config directory holding common.toml and bot.toml
	// +required
	configDir *dagger.Directory,
	// Command to run: "bot" or "db"
	// +required
	cmd string,
	// Arguments passed to the command (e.g. "migrate" for db)
	// +optional
	args []string,
) *dagger.Container {
	return goContainer(src, "ca-certificates").
		WithDirectory("/etc/todbot/config", configDir).
		WithExec([]string{"go", "build", "-o", "/src/bin/" + cmd, "./cmd/" + cmd}).
		WithExec(append([]string{"/src/bin/" + cmd}, args...))
}

// Test runs the unit tests of every package.
func (m *Todbot) Test(
	ctx context.Context,
	// Source code directory
	// +required
	src *dagger.Directory,
) (string, error) {
	return goContainer(src).
		WithExec([]string{"go", "test", "./..."}).
		Stdout(ctx)
}
