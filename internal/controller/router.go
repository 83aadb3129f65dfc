package controller

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/attested-reveal/internal/devnet"
)

// APIPrefix is the path under which the devnet gateway serves its API.
const APIPrefix = "/api/v1"

// NewDevnetRouter builds the gin engine serving the confidential and ledger API of `network`.
func NewDevnetRouter(network *devnet.Network) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), loggerMiddleware())

	apiv1Group := router.Group(APIPrefix)
	controllers := []Controller{
		&PingPongController{},
		&ConfidentialController{Network: network},
		&LedgerController{Network: network},
	}
	for _, c := range controllers {
		if err := RegisterHandlers(apiv1Group, c); err != nil {
			return nil, err
		}
	}

	return router, nil
}

// loggerMiddleware logs every request through logrus instead of gin's default writer.
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"client":  c.ClientIP(),
		}).Debugf("%v %v", c.Request.Method, c.Request.URL.Path)
	}
}
