// image.go implements the image build step.
//
// The build shells out to the docker CLI rather than using the SDK's
// ImageBuild API: the SDK requires the caller to tar the build context
// and decode a JSON progress stream, while `docker build` handles
// context upload, BuildKit, and progress rendering itself. Shelling out
// keeps the output identical to what operators see when building by hand.
package docker

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/mmr-tortoise/embedctl/internal/model"
)

// BuildImage builds the service image with the working directory as the
// build context, tagged with the given tag. Build progress is streamed
// to the provided writers so the operator can follow long dependency
// installs.
//
// Returns a CLIError with ExitBuildFailed on a non-zero build result.
func BuildImage(ctx context.Context, workDir, tag string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, "docker", "build", "-t", tag, ".")
	// The context path "." is resolved against cmd.Dir, so the build
	// context is exactly the deployment working directory.
	cmd.Dir = workDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(
			model.ExitBuildFailed,
			fmt.Sprintf("docker build failed for image %q", tag),
			err,
		)
	}
	return nil
}
