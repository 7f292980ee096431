// Command rina-demo wires one Namespace end to end: a shim-loopback
// IPCP on a single DIF, a server application registering and a client
// reaching it through the four-step flow-allocation handshake, then a
// handful of SDUs
// carried over the resulting DTP connection. It is a demo, not an
// admin tool — there is no persistent device, no CLI surface beyond
// a couple of flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rinacore/rinacore"
	"github.com/rinacore/rinacore/internal/dtp"
	"github.com/rinacore/rinacore/internal/logging"
	"github.com/rinacore/rinacore/internal/objects"
	"github.com/rinacore/rinacore/internal/shimloopback"
	"github.com/rinacore/rinacore/internal/wire"
)

func main() {
	var verbose = flag.Bool("v", false, "verbose logging")
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logging.SetDefault(logging.NewLogger(logConfig))

	if err := run(); err != nil {
		logging.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	factories := objects.NewRegistry()
	factories.Register(&objects.Factory{
		DIFType: "shim-loopback",
		New:     func() objects.IPCPOps { return shimloopback.New() },
	})

	ns := rina.NewNamespace(factories)
	defer ns.Close()

	dif, err := ns.CreateDIF("demo.DIF", "shim-loopback", 2048, 1000)
	if err != nil {
		return err
	}

	if _, _, err := ns.CreateIPCP("shim0", dif, "shim-loopback"); err != nil {
		return err
	}
	logging.Info("IPCP created", "name", "shim0", "dif", dif.Name)

	serverDev := ns.OpenControlDevice()
	clientDev := ns.OpenControlDevice()

	ctx := context.Background()

	regEvent := serverDev.NextEventID()
	if err := serverDev.Write(ctx, wire.Encode(regEvent, &wire.ApplRegister{
		DIFName: dif.Name, ApplName: "server", Register: true,
	})); err != nil {
		return err
	}
	if _, err := readMessage(serverDev); err != nil {
		return err
	}
	logging.Info("application registered", "name", "server")

	faEvent := clientDev.NextEventID()
	if err := clientDev.Write(ctx, wire.Encode(faEvent, &wire.FaReq{
		DIFName: dif.Name, Local: "client", Remote: "server",
	})); err != nil {
		return err
	}

	arrivedMsg, err := readMessage(serverDev)
	if err != nil {
		return err
	}
	arrived := arrivedMsg.(*wire.FaReqArrived)
	logging.Info("flow-allocation request arrived", "port", arrived.PortID)

	respEvent := serverDev.NextEventID()
	if err := serverDev.Write(ctx, wire.Encode(respEvent, &wire.FaResp{
		PortID: arrived.PortID, EventID: respEvent, Response: wire.RespSuccess,
	})); err != nil {
		return err
	}

	respArrivedMsg, err := readMessage(clientDev)
	if err != nil {
		return err
	}
	respArrived := respArrivedMsg.(*wire.FaRespArrived)
	logging.Info("flow allocated", "client_port", respArrived.PortID, "server_port", respArrived.RemotePort)

	reqFlow, ok := ns.DM.LookupFlowByPort(respArrived.PortID)
	if !ok {
		return fmt.Errorf("requester flow vanished")
	}
	sender, ok := reqFlow.DTP.(*dtp.State)
	if !ok {
		return fmt.Errorf("requester flow has no DTP engine")
	}

	for i := 0; i < 3; i++ {
		sdu := []byte(fmt.Sprintf("hello from client, message %d", i))
		if err := sender.Send(sdu); err != nil {
			return err
		}
		buf := make([]byte, 4096)
		n, err := serverDev.ReadTimeout(buf, time.Second)
		if err != nil {
			return err
		}
		logging.Info("server received SDU", "bytes", n, "payload", string(buf[:n]))
	}

	return nil
}

// readMessage pulls one framed control message off dev and decodes it.
func readMessage(dev interface {
	Read([]byte) (int, error)
}) (wire.Message, error) {
	buf := make([]byte, 4096)
	n, err := dev.Read(buf)
	if err != nil {
		return nil, err
	}
	_, msg, err := wire.Decode(buf[:n])
	return msg, err
}
