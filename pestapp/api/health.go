package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/process"
)

// Health 서비스 상태 반환
func (a *APIs) Health(c *gin.Context) {
	res := gin.H{
		"status":   "ok",
		"model":    a.I.Status(),
		"sessions": a.S.Len(),
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil {
			res["rss"] = mem.RSS
		}
	}

	c.JSON(http.StatusOK, res)
}
