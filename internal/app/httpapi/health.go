package httpapi

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hustleboard/hustleboard/internal/httputil"
)

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":     "ok",
		"uptime_sec": int64(time.Since(h.started).Seconds()),
		"goroutines": runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		resp["memory_used_percent"] = vm.UsedPercent
	}
	if uptime, err := host.Uptime(); err == nil {
		resp["host_uptime_sec"] = uptime
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
