package containerizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"drowse/pkg/logging"
)

// stopTimeoutSeconds is the grace period passed to the Engine API before SIGKILL.
const stopTimeoutSeconds = 10

// DockerRuntime implements ContainerRuntime against the Docker Engine API.
type DockerRuntime struct {
	http      *http.Client
	baseURL   string
	subsystem string
}

// NewDockerRuntime creates a runtime that dials the Engine API on the given unix socket.
func NewDockerRuntime(socketPath, subsystem string) *DockerRuntime {
	dialer := &net.Dialer{Timeout: 3 * time.Second}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", socketPath)
		},
	}
	return newDockerRuntimeWithClient("http://unix", &http.Client{Transport: transport}, subsystem)
}

func newDockerRuntimeWithClient(baseURL string, client *http.Client, subsystem string) *DockerRuntime {
	if subsystem == "" {
		subsystem = "Docker"
	}
	return &DockerRuntime{http: client, baseURL: strings.TrimRight(baseURL, "/"), subsystem: subsystem}
}

// apiError is a non-2xx Engine API response.
type apiError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("engine api %s %s failed (%d): %s", e.Method, e.Path, e.Status, e.Message)
}

func isStatus(err error, status int) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type containerInspect struct {
	ID    string `json:"Id"`
	Name  string `json:"Name"`
	State struct {
		Status  string `json:"Status"`
		Running bool   `json:"Running"`
		Paused  bool   `json:"Paused"`
	} `json:"State"`
	NetworkSettings struct {
		Ports map[string][]struct {
			HostIP   string `json:"HostIp"`
			HostPort string `json:"HostPort"`
		} `json:"Ports"`
	} `json:"NetworkSettings"`
}

type portBinding struct {
	HostPort string `json:"HostPort"`
}

type createRequest struct {
	Image        string              `json:"Image"`
	Env          []string            `json:"Env,omitempty"`
	ExposedPorts map[string]struct{} `json:"ExposedPorts,omitempty"`
	HostConfig   struct {
		PortBindings map[string][]portBinding `json:"PortBindings,omitempty"`
	} `json:"HostConfig"`
}

type updateRequest struct {
	Memory            int64 `json:"Memory"`
	MemoryReservation int64 `json:"MemoryReservation"`
	MemorySwap        int64 `json:"MemorySwap"`
}

// Ping checks that the Engine API answers.
func (d *DockerRuntime) Ping(ctx context.Context) error {
	_, err := d.do(ctx, http.MethodGet, "/_ping", nil)
	return err
}

// StartContainer makes sure the named container exists and is running.
// Paused containers are unpaused, stopped ones started, and missing ones
// created from spec.Image when an image is configured.
func (d *DockerRuntime) StartContainer(ctx context.Context, spec ContainerSpec) (ContainerInfo, error) {
	info, err := d.inspect(ctx, spec.Name)
	if isStatus(err, http.StatusNotFound) && spec.Image != "" {
		logging.Info(d.subsystem, "Container %s does not exist, creating it from %s", spec.Name, spec.Image)
		if err := d.create(ctx, spec); err != nil {
			return ContainerInfo{}, err
		}
		info, err = d.inspect(ctx, spec.Name)
	}
	if err != nil {
		return ContainerInfo{}, err
	}

	switch {
	case info.State.Paused:
		if err := d.UnpauseContainer(ctx, info.ID); err != nil {
			return ContainerInfo{}, err
		}
	case !info.State.Running:
		if _, err := d.do(ctx, http.MethodPost, "/containers/"+url.PathEscape(info.ID)+"/start", nil); err != nil && !isStatus(err, http.StatusNotModified) {
			return ContainerInfo{}, fmt.Errorf("failed to start container %s: %w", spec.Name, err)
		}
		if info, err = d.inspect(ctx, info.ID); err != nil {
			return ContainerInfo{}, err
		}
	}

	shortID := info.ID
	if len(shortID) > 12 {
		shortID = shortID[:12]
	}
	logging.Debug(d.subsystem, "Container %s running as %s", spec.Name, shortID)

	return ContainerInfo{ID: info.ID, Port: hostPort(info, spec.Port)}, nil
}

func (d *DockerRuntime) create(ctx context.Context, spec ContainerSpec) error {
	req := createRequest{Image: spec.Image}

	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		req.Env = append(req.Env, k+"="+spec.Env[k])
	}

	if spec.Port > 0 {
		p := fmt.Sprintf("%d/tcp", spec.Port)
		req.ExposedPorts = map[string]struct{}{p: {}}
		req.HostConfig.PortBindings = map[string][]portBinding{p: {{HostPort: strconv.Itoa(spec.Port)}}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if _, err := d.do(ctx, http.MethodPost, "/containers/create?name="+url.QueryEscape(spec.Name), body); err != nil {
		return fmt.Errorf("failed to create container %s: %w", spec.Name, err)
	}
	return nil
}

// hostPort resolves the published host port for containerPort. Without a
// binding the container port itself is returned.
func hostPort(info containerInspect, containerPort int) int {
	if containerPort > 0 {
		for _, b := range info.NetworkSettings.Ports[fmt.Sprintf("%d/tcp", containerPort)] {
			if p, err := strconv.Atoi(b.HostPort); err == nil && p > 0 {
				return p
			}
		}
		return containerPort
	}

	keys := make([]string, 0, len(info.NetworkSettings.Ports))
	for k := range info.NetworkSettings.Ports {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, b := range info.NetworkSettings.Ports[k] {
			if p, err := strconv.Atoi(b.HostPort); err == nil && p > 0 {
				return p
			}
		}
	}
	return 0
}

// StopContainer stops a container. Already stopped containers are not an error.
// A paused container is unpaused first, since a frozen process cannot act on
// SIGTERM and would sit out the whole grace period.
func (d *DockerRuntime) StopContainer(ctx context.Context, containerID string) error {
	if info, err := d.inspect(ctx, containerID); err == nil && info.State.Paused {
		if err := d.UnpauseContainer(ctx, containerID); err != nil {
			return fmt.Errorf("failed to stop container %s: %w", containerID, err)
		}
	}

	p := fmt.Sprintf("/containers/%s/stop?t=%d", url.PathEscape(containerID), stopTimeoutSeconds)
	if _, err := d.do(ctx, http.MethodPost, p, nil); err != nil && !isStatus(err, http.StatusNotModified) {
		return fmt.Errorf("failed to stop container %s: %w", containerID, err)
	}
	logging.Debug(d.subsystem, "Stopped container %s", containerID)
	return nil
}

// PauseContainer freezes a container.
func (d *DockerRuntime) PauseContainer(ctx context.Context, containerID string) error {
	if _, err := d.do(ctx, http.MethodPost, "/containers/"+url.PathEscape(containerID)+"/pause", nil); err != nil {
		return fmt.Errorf("failed to pause container %s: %w", containerID, err)
	}
	return nil
}

// UnpauseContainer resumes a paused container.
func (d *DockerRuntime) UnpauseContainer(ctx context.Context, containerID string) error {
	if _, err := d.do(ctx, http.MethodPost, "/containers/"+url.PathEscape(containerID)+"/unpause", nil); err != nil {
		return fmt.Errorf("failed to unpause container %s: %w", containerID, err)
	}
	return nil
}

// UpdateResources changes the container memory limits. The Engine API
// ignores zero values on update, so "unbounded" is sent as -1.
func (d *DockerRuntime) UpdateResources(ctx context.Context, containerID string, memoryLimit, memoryReservation int64) error {
	body, err := json.Marshal(newUpdateRequest(memoryLimit, memoryReservation))
	if err != nil {
		return err
	}
	if _, err := d.do(ctx, http.MethodPost, "/containers/"+url.PathEscape(containerID)+"/update", body); err != nil {
		return fmt.Errorf("failed to update resources of container %s: %w", containerID, err)
	}
	logging.Debug(d.subsystem, "Updated container %s memory limit=%d reservation=%d", containerID, memoryLimit, memoryReservation)
	return nil
}

func newUpdateRequest(memoryLimit, memoryReservation int64) updateRequest {
	req := updateRequest{Memory: memoryLimit, MemoryReservation: memoryReservation, MemorySwap: -1}
	if memoryLimit <= 0 {
		req.Memory = -1
	}
	if memoryReservation <= 0 {
		req.MemoryReservation = -1
	}
	return req
}

// Stats returns one non-streaming stats sample.
func (d *DockerRuntime) Stats(ctx context.Context, containerID string) (ContainerStats, error) {
	b, err := d.do(ctx, http.MethodGet, "/containers/"+url.PathEscape(containerID)+"/stats?stream=false", nil)
	if err != nil {
		return ContainerStats{}, err
	}
	var out ContainerStats
	if err := json.Unmarshal(b, &out); err != nil {
		return ContainerStats{}, fmt.Errorf("failed to decode stats of container %s: %w", containerID, err)
	}
	return out, nil
}

func (d *DockerRuntime) inspect(ctx context.Context, nameOrID string) (containerInspect, error) {
	b, err := d.do(ctx, http.MethodGet, "/containers/"+url.PathEscape(nameOrID)+"/json", nil)
	if err != nil {
		return containerInspect{}, err
	}
	var out containerInspect
	if err := json.Unmarshal(b, &out); err != nil {
		return containerInspect{}, fmt.Errorf("failed to decode container %s: %w", nameOrID, err)
	}
	return out, nil
}

func (d *DockerRuntime) do(ctx context.Context, method, p string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+p, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(io.LimitReader(res.Body, 10<<20))
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		return nil, &apiError{Method: method, Path: p, Status: res.StatusCode, Message: engineMessage(b, res.Status)}
	}
	return b, nil
}

// engineMessage extracts {"message": "..."} from an error body.
func engineMessage(body []byte, fallback string) string {
	var m struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &m) == nil && m.Message != "" {
		return m.Message
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return fallback
}
