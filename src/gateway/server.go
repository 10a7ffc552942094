package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/teivah/onecontext"
	"github.com/warp-contracts/stager/src/utils/config"
	"github.com/warp-contracts/stager/src/utils/logger"
	"github.com/warp-contracts/stager/src/utils/monitoring"
	monitor_stager "github.com/warp-contracts/stager/src/utils/monitoring/stager"
	"github.com/warp-contracts/stager/src/utils/task"
	"github.com/warp-contracts/stager/src/utils/transport"
)

// Handles one decoded RPC call, returns the value sent back in the reply payload
type Handler func(ctx context.Context, data json.RawMessage) (any, error)

// REST API server: RPC endpoint and monitoring
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	monitor  monitoring.Monitor
	receiver *transport.Receiver
	handlers map[string]Handler
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "gateway").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	self.handlers = make(map[string]Handler)
	self.receiver = transport.NewReceiver(config.Transport.SharedSecret)
	self.WithMonitor(monitor_stager.NewMonitor(config))

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	self.Router = gin.New()

	self.httpServer = &http.Server{
		Addr:    config.Gateway.RESTListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *Server) WithMonitor(monitor monitoring.Monitor) *Server {
	self.monitor = monitor
	self.receiver.WithMonitor(monitor)
	return self
}

// Registers the handler of a remote method
func (self *Server) WithHandler(method string, handler Handler) *Server {
	self.handlers[method] = handler
	return self
}

// Sets up routes. Called by run, exported for tests.
func (self *Server) Routes() *gin.Engine {
	self.Router.Use(gin.Recovery(), requestId())

	self.Router.POST(self.Config.Gateway.Path, rateLimit(self.Config.Gateway, self.monitor), self.onRPC)

	v1 := self.Router.Group("v1")
	{
		v1.GET("health", self.monitor.OnGetHealth)
		v1.GET("state", self.monitor.OnGetState)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(self.monitor.GetPrometheusCollector())
	self.Router.GET("metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if self.Config.Profiler.Enabled {
		runtime.SetBlockProfileRate(self.Config.Profiler.BlockProfileRate)
		pprof.Register(self.Router)
	}

	return self.Router
}

func (self *Server) run() (err error) {
	self.Routes()

	self.Log.WithField("address", self.httpServer.Addr).Info("Listening")
	err = self.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		self.Log.WithError(err).Error("Failed to start REST server")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown REST server")
		return
	}
}

func (self *Server) onRPC(c *gin.Context) {
	self.monitor.GetReport().Gateway.State.RequestsReceived.Inc()

	var req transport.Request
	err := c.ShouldBindJSON(&req)
	if err != nil {
		self.monitor.GetReport().Gateway.Errors.MalformedPayload.Inc()
		logger.LOGE(c, err, http.StatusBadRequest).Debug("Malformed request")
		return
	}

	handler, ok := self.handlers[req.Method]
	if !ok {
		self.monitor.GetReport().Gateway.Errors.UnknownMethod.Inc()
		logger.LOGE(c, fmt.Errorf("requested method %s does not exist", req.Method), http.StatusNotFound).Debug("Unknown method")
		return
	}

	log := logger.LOG(c).WithField("rpc", req.Method)

	var out any
	data, early := self.receiver.Receive(c.Request.Host, &req)
	if early != nil {
		log.WithField("message", early.Messages[0].Text).Info("Request rejected")
		out = early
	} else {
		// Cancelled when either the client goes away or the server stops
		ctx, cancel := onecontext.Merge(c.Request.Context(), self.Ctx)
		defer cancel()
		ctx, cancelTimeout := context.WithTimeout(ctx, self.Config.Gateway.ServerRequestTimeout)
		defer cancelTimeout()

		out, err = handler(ctx, data)
		if err != nil {
			self.monitor.GetReport().Gateway.Errors.HandlerFailures.Inc()
			logger.LOGE(c, err, http.StatusInternalServerError).Error("Handler failed")
			return
		}
	}

	reply, err := self.receiver.Reply(out)
	if err != nil {
		logger.LOGE(c, err, http.StatusInternalServerError).Error("Failed to encode reply")
		return
	}

	self.monitor.GetReport().Gateway.State.RequestsHandled.Inc()
	log.Debug("Handled")
	c.JSON(http.StatusOK, reply)
}
