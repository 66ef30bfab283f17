package evaluator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"

	"github.com/seqrec/hypersweep/internal/hyper"
)

// Docker runs a trainer image per trial. The trial work dir is mounted
// read-write at /workspace, the dataset files read-only under /data, and the
// telemetry dir (if any) at /tb. The trainer reads the same HYPERSWEEP_*
// variables as the exec evaluator, with container-side paths.
type Docker struct {
	Image       string
	Command     []string
	Env         map[string]string
	Timeout     time.Duration
	CPULimit    float64
	MemoryLimit int64
}

func (d *Docker) Evaluate(ctx context.Context, params hyper.Params, data Datasets, seed int64, tbLogDir string) (*Result, error) {
	if d.Image == "" {
		return nil, fmt.Errorf("docker evaluator: no trainer image configured")
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	workDir, err := os.MkdirTemp("", "hypersweep-trial-")
	if err != nil {
		return nil, fmt.Errorf("creating trial work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	if _, err := writeParams(workDir, params); err != nil {
		return nil, err
	}

	mounts := []mount.Mount{
		{
			Type:   mount.TypeBind,
			Source: workDir,
			Target: "/workspace",
		},
	}
	datasetMounts := map[string]string{
		data.Train:      "/data/train.txt",
		data.Test:       "/data/test.txt",
		data.Validation: "/data/validation.txt",
	}
	for src, target := range datasetMounts {
		abs, err := filepath.Abs(src)
		if err != nil {
			return nil, fmt.Errorf("resolving dataset path %s: %w", src, err)
		}
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   abs,
			Target:   target,
			ReadOnly: true,
		})
	}
	containerTBDir := ""
	if tbLogDir != "" {
		abs, err := filepath.Abs(tbLogDir)
		if err != nil {
			return nil, fmt.Errorf("resolving telemetry dir: %w", err)
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("creating telemetry dir: %w", err)
		}
		containerTBDir = "/tb"
		mounts = append(mounts, mount.Mount{Type: mount.TypeBind, Source: abs, Target: containerTBDir})
	}

	env := []string{
		"HYPERSWEEP_PARAMS=/workspace/params.json",
		"HYPERSWEEP_TRAIN=/data/train.txt",
		"HYPERSWEEP_TEST=/data/test.txt",
		"HYPERSWEEP_VALIDATION=/data/validation.txt",
		"HYPERSWEEP_SEED=" + strconv.FormatInt(seed, 10),
		"HYPERSWEEP_SCORES=/workspace/scores.json",
		"HYPERSWEEP_TB_LOG_DIR=" + containerTBDir,
	}
	for k, v := range d.Env {
		env = append(env, k+"="+v)
	}

	initTrue := true
	hostCfg := &container.HostConfig{
		Mounts: mounts,
		Init:   &initTrue,
	}
	if d.CPULimit > 0 {
		hostCfg.NanoCPUs = int64(d.CPULimit * 1e9)
	}
	if d.MemoryLimit > 0 {
		hostCfg.Memory = d.MemoryLimit
	}

	containerCfg := &container.Config{
		Image:  d.Image,
		Cmd:    d.Command,
		Env:    env,
		Labels: map[string]string{"hypersweep": "true"},
	}

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating trainer container: %w", err)
	}
	containerID := createResp.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("starting trainer container: %w", err)
	}

	waitCtx := ctx
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	waitResult := cli.ContainerWait(waitCtx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	for {
		select {
		case err := <-waitResult.Error:
			if err != nil {
				cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
				dumpContainerLogs(cli, containerID)
				return nil, fmt.Errorf("trainer container did not finish: %w", err)
			}
			// nil means nothing failed on this channel; keep waiting.
		case status := <-waitResult.Result:
			if status.StatusCode != 0 {
				dumpContainerLogs(cli, containerID)
				return nil, fmt.Errorf("trainer exited with status %d", status.StatusCode)
			}
			return readScores(filepath.Join(workDir, "scores.json"))
		}
	}
}

func dumpContainerLogs(cli *client.Client, containerID string) {
	logReader, _ := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       "100",
	})
	if logReader == nil {
		return
	}
	logData, _ := io.ReadAll(logReader)
	logReader.Close()
	if len(logData) > 0 {
		fmt.Fprintf(os.Stderr, "Trainer logs:\n%s\n", string(logData))
	}
}
